package models

import "time"

// Invoice represents a row in the invoices table.
type Invoice struct {
	InvoiceID string    `db:"invoice_id"`
	PartyID   string    `db:"party_id"`
	Kind      string    `db:"kind"`
	Reference string    `db:"reference"`
	Total     int64     `db:"total"`
	Paid      int64     `db:"paid"`
	Status    string    `db:"status"`
	IssuedAt  time.Time `db:"issued_at"`
	AuditFields
}
