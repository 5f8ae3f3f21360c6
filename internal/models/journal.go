package models

import "time"

// JournalEntry represents a row in the journal_entries table.
type JournalEntry struct {
	EntryID          string    `db:"entry_id"`
	EntryDate        time.Time `db:"entry_date"`
	PostedAt         time.Time `db:"posted_at"`
	SourceType       string    `db:"source_type"`
	SourceID         string    `db:"source_id"`
	IdempotencyKey   string    `db:"idempotency_key"`
	Memo             string    `db:"memo"`
	CurrencyCode     string    `db:"currency_code"`
	Status           string    `db:"status"`
	OriginalEntryID  *string   `db:"original_entry_id"`
	ReversingEntryID *string   `db:"reversing_entry_id"`
	AuditFields
}

// JournalLine represents a row in the journal_lines table. Debit and credit
// are BIGINT minor units; exactly one of them is nonzero.
type JournalLine struct {
	LineID      string `db:"line_id"`
	EntryID     string `db:"entry_id"`
	AccountCode string `db:"account_code"`
	Debit       int64  `db:"debit"`
	Credit      int64  `db:"credit"`
	PartyID     string `db:"party_id"`   // Nullable
	SessionID   string `db:"session_id"` // Nullable
	Memo        string `db:"memo"`
}
