package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/dukapos/pos_ledger_app/internal/middleware"
	"github.com/dukapos/pos_ledger_app/internal/platform/metrics"
)

var (
	ErrCreditNotApproved    = errors.New("party has no approved credit facility")
	ErrCreditFrozen         = errors.New("party credit is frozen")
	ErrCreditLimitExceeded  = errors.New("transaction would exceed the party's available credit")
	ErrInvalidCreditAmount  = errors.New("credit amount must be positive")
	ErrCreditProfileMissing = errors.New("party has no credit profile")
)

// creditService enforces per-party credit policy. Outstanding balances are
// derived from ledger postings on every call; there is no cached figure.
type creditService struct {
	creditRepo   portsrepo.CreditRepositoryFacade
	ledgerRepo   portsrepo.LedgerRepositoryWithTx
	currencyCode string
	exponent     int32
}

// NewCreditService creates a new CreditService.
func NewCreditService(creditRepo portsrepo.CreditRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryWithTx, currencyCode string, exponent int32) portssvc.CreditSvcFacade {
	return &creditService{
		creditRepo:   creditRepo,
		ledgerRepo:   ledgerRepo,
		currencyCode: currencyCode,
		exponent:     exponent,
	}
}

var _ portssvc.CreditSvcFacade = (*creditService)(nil)

// receivableAccountFor maps a party type to the control account its
// outstanding balance lives on.
func receivableAccountFor(partyType domain.PartyType) domain.AccountCode {
	if partyType == domain.Supplier {
		return domain.AccountPayable
	}
	return domain.AccountReceivable
}

// availableCredit computes limit minus outstanding, floored at zero. A
// negative outstanding means the party holds a credit balance and available
// credit deliberately rises above the limit; no absolute value is taken.
func availableCredit(limit, outstanding domain.Amount) domain.Amount {
	available := limit - outstanding
	if available < 0 {
		return 0
	}
	return available
}

// Summary returns the party's ledger-derived credit position.
func (s *creditService) Summary(ctx context.Context, partyID domain.PartyID) (*domain.CreditSummary, error) {
	profile, err := s.creditRepo.FindProfileByPartyID(ctx, partyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: party %s", ErrCreditProfileMissing, partyID)
		}
		return nil, err
	}

	outstanding, err := s.ledgerRepo.PartyOutstanding(ctx, partyID, receivableAccountFor(profile.PartyType))
	if err != nil {
		return nil, fmt.Errorf("failed to derive outstanding for party %s: %w", partyID, err)
	}

	return &domain.CreditSummary{
		PartyID:            partyID,
		Approved:           profile.Approved,
		Frozen:             profile.Frozen,
		CreditLimit:        profile.CreditLimit,
		CreditDurationDays: profile.CreditDurationDays,
		Outstanding:        outstanding,
		Available:          availableCredit(profile.CreditLimit, outstanding),
	}, nil
}

// Validate checks a prospective credit amount against policy and the fresh
// outstanding balance. It fails closed: no profile, unapproved or frozen all
// refuse any nonzero amount.
func (s *creditService) Validate(ctx context.Context, partyID domain.PartyID, prospective domain.Amount) (*domain.CreditValidation, error) {
	if prospective <= 0 {
		return nil, fmt.Errorf("%w: got %d minor units", ErrInvalidCreditAmount, prospective)
	}

	profile, err := s.creditRepo.FindProfileByPartyID(ctx, partyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.CreditValidation{IsValid: false, Reason: "party has no credit profile"}, nil
		}
		return nil, err
	}
	if !profile.Approved {
		return &domain.CreditValidation{IsValid: false, Reason: "credit not approved"}, nil
	}
	if profile.Frozen {
		return &domain.CreditValidation{IsValid: false, Reason: "credit is frozen"}, nil
	}

	outstanding, err := s.ledgerRepo.PartyOutstanding(ctx, partyID, receivableAccountFor(profile.PartyType))
	if err != nil {
		return nil, fmt.Errorf("failed to derive outstanding for party %s: %w", partyID, err)
	}

	if outstanding+prospective > profile.CreditLimit {
		return &domain.CreditValidation{
			IsValid:          false,
			WouldExceedLimit: true,
			Reason: fmt.Sprintf("outstanding %s plus %s exceeds limit %s",
				outstanding.Decimal(s.exponent), prospective.Decimal(s.exponent), profile.CreditLimit.Decimal(s.exponent)),
		}, nil
	}
	return &domain.CreditValidation{IsValid: true}, nil
}

// Approve sets approval state and optionally limit/duration, creating the
// profile on first approval. This never touches the ledger.
func (s *creditService) Approve(ctx context.Context, partyID domain.PartyID, req dto.ApproveCreditRequest, userID string) (*domain.CreditProfile, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	isNew := false
	profile, err := s.creditRepo.FindProfileByPartyID(ctx, partyID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		isNew = true
		profile = &domain.CreditProfile{
			PartyID:   partyID,
			PartyType: domain.PartyType(req.PartyType),
			AuditFields: domain.AuditFields{
				CreatedAt: now,
				CreatedBy: userID,
			},
		}
	}

	profile.Approved = req.Approved
	if req.CreditLimit != nil {
		limit, convErr := domain.AmountFromDecimal(*req.CreditLimit, s.exponent)
		if convErr != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, convErr)
		}
		if limit < 0 {
			return nil, fmt.Errorf("%w: credit limit must not be negative", apperrors.ErrValidation)
		}
		profile.CreditLimit = limit
	}
	if req.DurationDays != nil {
		if *req.DurationDays < 0 {
			return nil, fmt.Errorf("%w: credit duration must not be negative", apperrors.ErrValidation)
		}
		profile.CreditDurationDays = *req.DurationDays
	}
	profile.LastUpdatedAt = now
	profile.LastUpdatedBy = userID

	if isNew {
		err = s.creditRepo.SaveProfile(ctx, *profile)
	} else {
		err = s.creditRepo.UpdateProfile(ctx, *profile)
	}
	if err != nil {
		logger.Error("Failed to persist credit profile", slog.String("error", err.Error()), slog.String("party_id", string(partyID)))
		return nil, fmt.Errorf("failed to persist credit profile: %w", err)
	}

	logger.Info("Credit profile updated", slog.String("party_id", string(partyID)), slog.Bool("approved", profile.Approved))
	return profile, nil
}

// UpdateLimit changes the credit limit and optionally the duration.
func (s *creditService) UpdateLimit(ctx context.Context, partyID domain.PartyID, req dto.UpdateCreditLimitRequest, userID string) (*domain.CreditProfile, error) {
	profile, err := s.creditRepo.FindProfileByPartyID(ctx, partyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: party %s", ErrCreditProfileMissing, partyID)
		}
		return nil, err
	}

	limit, err := domain.AmountFromDecimal(req.CreditLimit, s.exponent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: credit limit must not be negative", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	profile.CreditLimit = limit
	if req.DurationDays != nil {
		if *req.DurationDays < 0 {
			return nil, fmt.Errorf("%w: credit duration must not be negative", apperrors.ErrValidation)
		}
		profile.CreditDurationDays = *req.DurationDays
	}
	profile.LastUpdatedAt = now
	profile.LastUpdatedBy = userID

	if err := s.creditRepo.UpdateProfile(ctx, *profile); err != nil {
		return nil, fmt.Errorf("failed to update credit profile: %w", err)
	}
	return profile, nil
}

// SetFrozen toggles the freeze flag.
func (s *creditService) SetFrozen(ctx context.Context, partyID domain.PartyID, frozen bool, userID string) (*domain.CreditProfile, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	profile, err := s.creditRepo.FindProfileByPartyID(ctx, partyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: party %s", ErrCreditProfileMissing, partyID)
		}
		return nil, err
	}

	profile.Frozen = frozen
	profile.LastUpdatedAt = time.Now().UTC()
	profile.LastUpdatedBy = userID

	if err := s.creditRepo.UpdateProfile(ctx, *profile); err != nil {
		return nil, fmt.Errorf("failed to update credit profile: %w", err)
	}

	logger.Info("Credit freeze updated", slog.String("party_id", string(partyID)), slog.Bool("frozen", frozen))
	return profile, nil
}

// RecordCreditSale runs the limit check and posts the AR/Sales entry inside
// one transaction holding the party's advisory lock, so two concurrent sales
// cannot both read the same stale outstanding balance and both pass.
func (s *creditService) RecordCreditSale(ctx context.Context, req dto.RecordCreditSaleRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	partyID := domain.PartyID(req.PartyID)

	amount, err := domain.AmountFromDecimal(req.Amount, s.exponent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidCreditAmount, req.Amount)
	}

	profile, err := s.creditRepo.FindProfileByPartyID(ctx, partyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: party %s", ErrCreditNotApproved, partyID)
		}
		return nil, err
	}
	if !profile.Approved {
		return nil, fmt.Errorf("%w: party %s", ErrCreditNotApproved, partyID)
	}
	if profile.Frozen {
		return nil, fmt.Errorf("%w: party %s", ErrCreditFrozen, partyID)
	}

	arAccount := receivableAccountFor(profile.PartyType)

	if req.SessionID != "" {
		if err := checkSessionOpen(ctx, s.ledgerRepo, req.SessionID); err != nil {
			return nil, err
		}
	}

	// Idempotency pre-check outside the lock; the unique index backstops it.
	if prior, err := s.ledgerRepo.FindEntryBySourceKey(ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey); err == nil {
		return prior, fmt.Errorf("%w: prior entry %s", ErrDuplicatePosting, prior.EntryID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed idempotency lookup: %w", err)
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()
	entry := domain.JournalEntry{
		EntryID:        entryID,
		EntryDate:      now,
		PostedAt:       now,
		SourceType:     domain.SourceSale,
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		Memo:           req.Memo,
		CurrencyCode:   s.currencyCode,
		Status:         domain.Posted,
		Lines: []domain.JournalLine{
			{
				LineID:      uuid.NewString(),
				EntryID:     entryID,
				AccountCode: arAccount,
				Debit:       amount,
				PartyID:     partyID,
				SessionID:   req.SessionID,
			},
			{
				LineID:      uuid.NewString(),
				EntryID:     entryID,
				AccountCode: domain.AccountSales,
				Credit:      amount,
				SessionID:   req.SessionID,
			},
		},
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	tx, err := s.ledgerRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.ledgerRepo.Rollback(ctx, tx)

	if err := s.ledgerRepo.AcquirePartyLock(ctx, tx, partyID); err != nil {
		return nil, fmt.Errorf("failed to lock party %s: %w", partyID, err)
	}

	// Re-derive outstanding under the lock; this is the figure the limit
	// decision is made on.
	outstanding, err := s.ledgerRepo.PartyOutstandingInTx(ctx, tx, partyID, arAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to derive outstanding for party %s: %w", partyID, err)
	}
	if outstanding+amount > profile.CreditLimit {
		return nil, fmt.Errorf("%w: outstanding %s plus %s exceeds limit %s", ErrCreditLimitExceeded,
			outstanding.Decimal(s.exponent), amount.Decimal(s.exponent), profile.CreditLimit.Decimal(s.exponent))
	}

	if err := s.ledgerRepo.SaveEntryInTx(ctx, tx, entry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost the race against a concurrent retry; fetch what it posted.
			if prior, lookupErr := s.ledgerRepo.FindEntryBySourceKey(ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey); lookupErr == nil {
				return prior, fmt.Errorf("%w: prior entry %s", ErrDuplicatePosting, prior.EntryID)
			}
			return nil, fmt.Errorf("%w: source %s", ErrDuplicatePosting, req.SourceID)
		}
		logger.Error("Failed to post credit sale", slog.String("error", err.Error()), slog.String("party_id", req.PartyID))
		return nil, fmt.Errorf("failed to post credit sale: %w", err)
	}
	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	metrics.PostingsTotal.Inc()
	logger.Info("Credit sale recorded",
		slog.String("party_id", req.PartyID),
		slog.String("entry_id", entryID),
		slog.String("amount", req.Amount.String()))
	return &entry, nil
}
