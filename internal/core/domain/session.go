package domain

import "time"

// SessionStatus is the cashier session lifecycle state. Transitions are
// strictly Open -> Closed -> Reconciled; no state is skipped.
type SessionStatus string

const (
	SessionOpen       SessionStatus = "OPEN"
	SessionClosed     SessionStatus = "CLOSED"
	SessionReconciled SessionStatus = "RECONCILED"
)

// CashierSession is a bounded work period during which takings on one channel
// are attributed to one cashier and later reconciled. At most one Open
// session exists per (channel, cashier) pair.
type CashierSession struct {
	SessionID string        `json:"sessionID"`
	Channel   string        `json:"channel"` // e.g. "main-till", "drive-through"
	CashierID string        `json:"cashierID"`
	Status    SessionStatus `json:"status"`
	OpenedAt  time.Time     `json:"openedAt"`
	ClosedAt  *time.Time    `json:"closedAt,omitempty"`
	AuditFields
}

// DeclaredBalance is one account's declared closing amount, supplied by the
// cashier when closing a session or requesting a reconciliation.
type DeclaredBalance struct {
	AccountCode AccountCode `json:"accountCode"`
	Declared    Amount      `json:"declared"`
}

// CashCount is a snapshot taken during or at the end of a session. The
// expected amount is derived from the ledger postings attributed to the
// session window for that account; variance = declared - expected.
type CashCount struct {
	CountID        string      `json:"countID"`
	SessionID      string      `json:"sessionID"`
	AccountCode    AccountCode `json:"accountCode"`
	Declared       Amount      `json:"declared"`
	Expected       Amount      `json:"expected"`
	Variance       Amount      `json:"variance"`
	HasVariance    bool        `json:"hasVariance"` // |variance| exceeded the configured tolerance
	VarianceReason string      `json:"varianceReason,omitempty"`
	ReviewedBy     string      `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time  `json:"reviewedAt,omitempty"`
	ReviewNotes    string      `json:"reviewNotes,omitempty"`
	AuditFields
}

// Reviewed reports whether a flagged count has been explained or signed off.
func (c CashCount) Reviewed() bool {
	return c.VarianceReason != "" || c.ReviewedBy != ""
}

// ReconciliationLine compares declared vs ledger-expected for one account.
type ReconciliationLine struct {
	AccountCode AccountCode `json:"accountCode"`
	Declared    Amount      `json:"declared"`
	Expected    Amount      `json:"expected"`
	Variance    Amount      `json:"variance"`
}

// Reconciliation is the artifact a supervisor reviews before a Closed
// session may move to Reconciled.
type Reconciliation struct {
	ReconciliationID string               `json:"reconciliationID"`
	SessionID        string               `json:"sessionID,omitempty"` // Empty for arbitrary-scope snapshots
	Notes            string               `json:"notes,omitempty"`
	Lines            []ReconciliationLine `json:"lines"`
	AuditFields
}

// MobileMoneyCheck marks one mobile-money transaction reference as confirmed
// or flagged. Only when every check for a session is confirmed is that
// channel's count trusted without manual review.
type MobileMoneyCheck struct {
	CheckID    string     `json:"checkID"`
	SessionID  string     `json:"sessionID"`
	TxnRef     string     `json:"txnRef"` // Provider-side transaction id
	Confirmed  bool       `json:"confirmed"`
	Flagged    bool       `json:"flagged"`
	Notes      string     `json:"notes,omitempty"`
	VerifiedBy string     `json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}
