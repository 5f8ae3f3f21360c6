package dto

import (
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ApproveCreditRequest defines the payload for approving (or revoking) a
// party's credit facility.
type ApproveCreditRequest struct {
	PartyType    string           `json:"partyType" binding:"required,oneof=CUSTOMER SUPPLIER"`
	Approved     bool             `json:"approved"`
	CreditLimit  *decimal.Decimal `json:"creditLimit,omitempty"`
	DurationDays *int             `json:"durationDays,omitempty"`
}

// UpdateCreditLimitRequest defines the payload for changing limit/duration.
type UpdateCreditLimitRequest struct {
	CreditLimit  decimal.Decimal `json:"creditLimit" binding:"required"`
	DurationDays *int            `json:"durationDays,omitempty"`
}

// SetCreditFreezeRequest toggles the freeze flag, which blocks new credit
// issuance without blocking repayments.
type SetCreditFreezeRequest struct {
	Frozen bool `json:"frozen"`
}

// ValidateCreditRequest asks whether a prospective credit transaction of the
// given amount would be allowed.
type ValidateCreditRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RecordCreditSaleRequest commits a credit sale: the limit check and the
// AR/Sales posting happen in one per-party-serialized operation.
type RecordCreditSaleRequest struct {
	PartyID        string          `json:"partyID" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	SourceID       string          `json:"sourceID" binding:"required"` // Originating order id
	IdempotencyKey string          `json:"idempotencyKey" binding:"required"`
	SessionID      string          `json:"sessionID,omitempty"`
	Memo           string          `json:"memo,omitempty"`
}

// CreditSummaryResponse mirrors domain.CreditSummary at the boundary.
type CreditSummaryResponse struct {
	PartyID            string          `json:"partyID"`
	Approved           bool            `json:"approved"`
	Frozen             bool            `json:"frozen"`
	CreditLimit        decimal.Decimal `json:"creditLimit"`
	CreditDurationDays int             `json:"creditDurationDays"`
	Outstanding        decimal.Decimal `json:"outstanding"`
	Available          decimal.Decimal `json:"available"`
}

// CreditValidationResponse mirrors domain.CreditValidation.
type CreditValidationResponse struct {
	IsValid          bool   `json:"isValid"`
	WouldExceedLimit bool   `json:"wouldExceedLimit"`
	Reason           string `json:"reason,omitempty"`
}

// ToCreditSummaryResponse converts a domain.CreditSummary.
func ToCreditSummaryResponse(s *domain.CreditSummary, exponent int32) CreditSummaryResponse {
	return CreditSummaryResponse{
		PartyID:            string(s.PartyID),
		Approved:           s.Approved,
		Frozen:             s.Frozen,
		CreditLimit:        s.CreditLimit.Decimal(exponent),
		CreditDurationDays: s.CreditDurationDays,
		Outstanding:        s.Outstanding.Decimal(exponent),
		Available:          s.Available.Decimal(exponent),
	}
}

// ToCreditValidationResponse converts a domain.CreditValidation.
func ToCreditValidationResponse(v *domain.CreditValidation) CreditValidationResponse {
	return CreditValidationResponse{
		IsValid:          v.IsValid,
		WouldExceedLimit: v.WouldExceedLimit,
		Reason:           v.Reason,
	}
}
