package services

import (
	"context"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/dto"
)

// CreditSvcFacade defines credit policy operations. Outstanding figures are
// always re-derived from the ledger; no method accepts a caller-supplied
// outstanding amount.
type CreditSvcFacade interface {
	// Summary returns the party's ledger-derived credit position.
	Summary(ctx context.Context, partyID domain.PartyID) (*domain.CreditSummary, error)

	// Validate checks a prospective credit amount against policy and the
	// fresh outstanding balance. Fails closed on unapproved or frozen.
	Validate(ctx context.Context, partyID domain.PartyID, prospective domain.Amount) (*domain.CreditValidation, error)

	// Approve sets approval state and optionally limit/duration.
	Approve(ctx context.Context, partyID domain.PartyID, req dto.ApproveCreditRequest, userID string) (*domain.CreditProfile, error)

	// UpdateLimit changes the credit limit and optionally the duration.
	UpdateLimit(ctx context.Context, partyID domain.PartyID, req dto.UpdateCreditLimitRequest, userID string) (*domain.CreditProfile, error)

	// SetFrozen toggles the freeze flag. Frozen blocks new credit issuance
	// but never repayments.
	SetFrozen(ctx context.Context, partyID domain.PartyID, frozen bool, userID string) (*domain.CreditProfile, error)

	// RecordCreditSale runs the limit check and posts the AR/Sales entry in
	// one per-party-serialized span, so two concurrent sales cannot both
	// pass a check only one of them should.
	RecordCreditSale(ctx context.Context, req dto.RecordCreditSaleRequest, userID string) (*domain.JournalEntry, error)
}
