package domain

import "time"

// PartyType distinguishes the two sides of trade credit.
type PartyType string

const (
	Customer PartyType = "CUSTOMER"
	Supplier PartyType = "SUPPLIER"
)

// CreditProfile is the policy record governing whether and how much a party
// may owe. Outstanding balance is NOT stored here: it is always re-derived
// from the party's AR/AP postings at query time.
type CreditProfile struct {
	PartyID             PartyID   `json:"partyID"`
	PartyType           PartyType `json:"partyType"`
	Approved            bool      `json:"approved"`
	CreditLimit         Amount    `json:"creditLimit"`
	CreditDurationDays  int       `json:"creditDurationDays"`
	Frozen              bool      `json:"frozen"` // Blocks new credit, not repayments
	LastRepaymentAt     *time.Time `json:"lastRepaymentAt,omitempty"`     // Informational only
	LastRepaymentAmount Amount     `json:"lastRepaymentAmount,omitempty"` // Informational only
	AuditFields
}

// CreditSummary is the ledger-derived view of a party's credit position.
type CreditSummary struct {
	PartyID            PartyID `json:"partyID"`
	Approved           bool    `json:"approved"`
	Frozen             bool    `json:"frozen"`
	CreditLimit        Amount  `json:"creditLimit"`
	CreditDurationDays int     `json:"creditDurationDays"`
	Outstanding        Amount  `json:"outstanding"` // Negative means the party holds a credit balance
	Available          Amount  `json:"available"`
}

// CreditValidation is the outcome of checking a prospective credit
// transaction against the party's policy and outstanding balance.
type CreditValidation struct {
	IsValid          bool   `json:"isValid"`
	WouldExceedLimit bool   `json:"wouldExceedLimit"`
	Reason           string `json:"reason,omitempty"`
}
