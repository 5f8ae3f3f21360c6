package models

import "time"

// CashierSession represents a row in the cashier_sessions table.
type CashierSession struct {
	SessionID string     `db:"session_id"`
	Channel   string     `db:"channel"`
	CashierID string     `db:"cashier_id"`
	Status    string     `db:"status"`
	OpenedAt  time.Time  `db:"opened_at"`
	ClosedAt  *time.Time `db:"closed_at"`
	AuditFields
}

// CashCount represents a row in the cash_counts table.
type CashCount struct {
	CountID        string     `db:"count_id"`
	SessionID      string     `db:"session_id"`
	AccountCode    string     `db:"account_code"`
	Declared       int64      `db:"declared"`
	Expected       int64      `db:"expected"`
	Variance       int64      `db:"variance"`
	HasVariance    bool       `db:"has_variance"`
	VarianceReason string     `db:"variance_reason"`
	ReviewedBy     string     `db:"reviewed_by"`
	ReviewedAt     *time.Time `db:"reviewed_at"`
	ReviewNotes    string     `db:"review_notes"`
	AuditFields
}

// Reconciliation represents a row in the reconciliations table.
type Reconciliation struct {
	ReconciliationID string `db:"reconciliation_id"`
	SessionID        string `db:"session_id"` // Nullable
	Notes            string `db:"notes"`
	AuditFields
}

// ReconciliationLine represents a row in the reconciliation_lines table.
type ReconciliationLine struct {
	ReconciliationID string `db:"reconciliation_id"`
	AccountCode      string `db:"account_code"`
	Declared         int64  `db:"declared"`
	Expected         int64  `db:"expected"`
	Variance         int64  `db:"variance"`
}

// MobileMoneyCheck represents a row in the mobile_money_checks table.
type MobileMoneyCheck struct {
	CheckID    string     `db:"check_id"`
	SessionID  string     `db:"session_id"`
	TxnRef     string     `db:"txn_ref"`
	Confirmed  bool       `db:"confirmed"`
	Flagged    bool       `db:"flagged"`
	Notes      string     `db:"notes"`
	VerifiedBy string     `db:"verified_by"`
	VerifiedAt *time.Time `db:"verified_at"`
}
