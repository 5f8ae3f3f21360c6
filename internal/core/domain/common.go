package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID reference
}

// PartyID identifies a customer or supplier. Parties themselves are owned by
// the catalog/CRM side of the system; the ledger only keys postings by them.
type PartyID string

// InvoiceID identifies a sales or purchase invoice.
type InvoiceID string

// AccountCode is the unique, human-assigned code of a ledger account
// (e.g. "1000-CASH", "1100-AR").
type AccountCode string
