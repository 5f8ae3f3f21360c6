package domain

import "time"

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// SourceType names the business event that produced a journal entry. Together
// with SourceID and IdempotencyKey it uniquely identifies a posting, which is
// how retried requests are detected before they double-post.
type SourceType string

const (
	SourceSale       SourceType = "SALE"
	SourcePurchase   SourceType = "PURCHASE"
	SourceAllocation SourceType = "ALLOCATION"
	SourceExpense    SourceType = "EXPENSE"
	SourceTransfer   SourceType = "TRANSFER"
	SourceSession    SourceType = "SESSION"
	SourceReversal   SourceType = "REVERSAL"
	SourceManual     SourceType = "MANUAL"
)

// JournalEntry represents a single, balanced financial event composed of
// multiple lines. Entries are write-once: corrections happen by posting a
// reversing entry, never by mutating the original.
type JournalEntry struct {
	EntryID          string      `json:"entryID"` // Primary key (UUID)
	EntryDate        time.Time   `json:"entryDate"`
	PostedAt         time.Time   `json:"postedAt"`
	SourceType       SourceType  `json:"sourceType"`
	SourceID         string      `json:"sourceID"`
	IdempotencyKey   string      `json:"idempotencyKey"`
	Memo             string      `json:"memo"`
	CurrencyCode     string      `json:"currencyCode"`
	Status           EntryStatus `json:"status"`
	OriginalEntryID  *string     `json:"originalEntryID,omitempty"`  // Set on reversing entries
	ReversingEntryID *string     `json:"reversingEntryID,omitempty"` // Set on reversed entries
	Lines            []JournalLine
	AuditFields
}

// JournalLine is one posting within an entry, affecting one account. Exactly
// one of Debit/Credit is nonzero and both are non-negative.
type JournalLine struct {
	LineID      string      `json:"lineID"` // Primary key (UUID)
	EntryID     string      `json:"entryID"`
	AccountCode AccountCode `json:"accountCode"`
	Debit       Amount      `json:"debit"`
	Credit      Amount      `json:"credit"`
	PartyID     PartyID     `json:"partyID,omitempty"`   // Set on AR/AP postings
	SessionID   string      `json:"sessionID,omitempty"` // Set on takings within a cashier session
	Memo        string      `json:"memo,omitempty"`
}

// IsDebit reports whether the line posts to the debit side.
func (l JournalLine) IsDebit() bool {
	return l.Debit != 0
}

// Signed returns the line's effect on the account balance under the usual
// convention: debits increase ASSET/EXPENSE accounts, credits increase
// LIABILITY/EQUITY/INCOME accounts.
func (l JournalLine) Signed(accountType AccountType) Amount {
	switch accountType {
	case Asset, Expense:
		return l.Debit - l.Credit
	default:
		return l.Credit - l.Debit
	}
}
