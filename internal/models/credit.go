package models

import "time"

// CreditProfile represents a row in the credit_profiles table. Outstanding
// balance is not a column; it is derived from journal_lines on demand.
type CreditProfile struct {
	PartyID             string     `db:"party_id"`
	PartyType           string     `db:"party_type"`
	Approved            bool       `db:"approved"`
	CreditLimit         int64      `db:"credit_limit"`
	CreditDurationDays  int        `db:"credit_duration_days"`
	Frozen              bool       `db:"frozen"`
	LastRepaymentAt     *time.Time `db:"last_repayment_at"`
	LastRepaymentAmount int64      `db:"last_repayment_amount"`
	AuditFields
}
