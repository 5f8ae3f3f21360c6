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
	ErrUnbalancedEntry  = errors.New("entry debits and credits do not balance")
	ErrEntryMinLines    = errors.New("entry must have at least two lines")
	ErrDuplicatePosting = errors.New("an entry with this source and idempotency key already exists")
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountInactive  = errors.New("account is inactive")
	ErrEntryNotPosted   = errors.New("entry must be in POSTED status")
	ErrAlreadyReversal  = errors.New("cannot reverse an entry that is itself a reversal")
)

// ledgerService provides the core posting and balance operations.
type ledgerService struct {
	ledgerRepo   portsrepo.LedgerRepositoryWithTx
	accountSvc   portssvc.AccountSvcFacade
	currencyCode string
	exponent     int32
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountSvc portssvc.AccountSvcFacade, currencyCode string, exponent int32) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:   ledgerRepo,
		accountSvc:   accountSvc,
		currencyCode: currencyCode,
		exponent:     exponent,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// validateEntryLines enforces the double-entry invariants: at least two
// lines, each line with exactly one positive side, and debit and credit
// totals equal.
func validateEntryLines(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return ErrEntryMinLines
	}

	var debits, credits domain.Amount
	for _, line := range lines {
		if line.Debit < 0 || line.Credit < 0 {
			return fmt.Errorf("%w: negative amount on account %s", ErrUnbalancedEntry, line.AccountCode)
		}
		if line.Debit != 0 && line.Credit != 0 {
			return fmt.Errorf("%w: line for account %s has both debit and credit set", ErrUnbalancedEntry, line.AccountCode)
		}
		if line.Debit == 0 && line.Credit == 0 {
			return fmt.Errorf("%w: line for account %s has neither debit nor credit set", ErrUnbalancedEntry, line.AccountCode)
		}
		debits += line.Debit
		credits += line.Credit
	}

	if debits != credits {
		return fmt.Errorf("%w: debits sum to %d and credits sum to %d minor units", ErrUnbalancedEntry, debits, credits)
	}
	return nil
}

// resolveAccounts fetches the accounts referenced by the lines and checks
// they exist, are active, and carry the ledger currency.
func (s *ledgerService) resolveAccounts(ctx context.Context, lines []domain.JournalLine) (map[domain.AccountCode]domain.Account, error) {
	seen := make(map[domain.AccountCode]struct{}, len(lines))
	codes := make([]domain.AccountCode, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountCode]; !ok {
			seen[line.AccountCode] = struct{}{}
			codes = append(codes, line.AccountCode)
		}
	}

	accounts, err := s.accountSvc.GetAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	for _, code := range codes {
		acc, found := accounts[code]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, code)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrAccountInactive, code)
		}
		if acc.CurrencyCode != s.currencyCode {
			return nil, fmt.Errorf("%w: account %s carries %s, ledger currency is %s", apperrors.ErrValidation, code, acc.CurrencyCode, s.currencyCode)
		}
	}
	return accounts, nil
}

// checkSessionOpen refuses attribution to a session that is not Open. Closed
// and reconciled sessions accept no new attributed postings.
func checkSessionOpen(ctx context.Context, ledgerRepo portsrepo.LedgerRepositoryWithTx, sessionID string) error {
	status, err := ledgerRepo.SessionStatus(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: session %s not found", apperrors.ErrValidation, sessionID)
		}
		return fmt.Errorf("failed to check session %s: %w", sessionID, err)
	}
	if status != domain.SessionOpen {
		return fmt.Errorf("%w: session %s is %s", ErrSessionNotOpen, sessionID, status)
	}
	return nil
}

// checkLineSessionsOpen applies checkSessionOpen to every distinct session
// the lines attribute postings to.
func checkLineSessionsOpen(ctx context.Context, ledgerRepo portsrepo.LedgerRepositoryWithTx, lines []domain.JournalLine) error {
	seen := make(map[string]struct{})
	for _, line := range lines {
		if line.SessionID == "" {
			continue
		}
		if _, ok := seen[line.SessionID]; ok {
			continue
		}
		seen[line.SessionID] = struct{}{}
		if err := checkSessionOpen(ctx, ledgerRepo, line.SessionID); err != nil {
			return err
		}
	}
	return nil
}

// PostEntry validates and posts a balanced journal entry.
// Implements portssvc.LedgerSvcFacade.
func (s *ledgerService) PostEntry(ctx context.Context, req dto.PostEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	entryID := uuid.NewString()

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, lineReq := range req.Lines {
		debit, err := domain.AmountFromDecimal(lineReq.Debit, s.exponent)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		credit, err := domain.AmountFromDecimal(lineReq.Credit, s.exponent)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			AccountCode: domain.AccountCode(lineReq.AccountCode),
			Debit:       debit,
			Credit:      credit,
			PartyID:     domain.PartyID(lineReq.PartyID),
			SessionID:   lineReq.SessionID,
			Memo:        lineReq.Memo,
		}
	}

	if err := validateEntryLines(lines); err != nil {
		return nil, err
	}

	if _, err := s.resolveAccounts(ctx, lines); err != nil {
		return nil, err
	}

	if err := checkLineSessionsOpen(ctx, s.ledgerRepo, lines); err != nil {
		return nil, err
	}

	sourceType := domain.SourceType(req.SourceType)

	// Duplicate-operation check before posting. The unique index on
	// (source_type, source_id, idempotency_key) backstops the race where two
	// retries pass this read concurrently.
	prior, err := s.ledgerRepo.FindEntryBySourceKey(ctx, sourceType, req.SourceID, req.IdempotencyKey)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed idempotency lookup", slog.String("error", err.Error()), slog.String("source_id", req.SourceID))
		return nil, fmt.Errorf("failed idempotency lookup: %w", err)
	}
	if prior != nil {
		logger.Warn("Duplicate posting detected", slog.String("source_id", req.SourceID), slog.String("prior_entry_id", prior.EntryID))
		return prior, fmt.Errorf("%w: prior entry %s", ErrDuplicatePosting, prior.EntryID)
	}

	entry := domain.JournalEntry{
		EntryID:        entryID,
		EntryDate:      req.EntryDate,
		PostedAt:       now,
		SourceType:     sourceType,
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		Memo:           req.Memo,
		CurrencyCode:   s.currencyCode,
		Status:         domain.Posted,
		Lines:          lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.ledgerRepo.SaveEntry(ctx, entry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost the race against a concurrent retry; fetch what it posted.
			if prior, lookupErr := s.ledgerRepo.FindEntryBySourceKey(ctx, sourceType, req.SourceID, req.IdempotencyKey); lookupErr == nil {
				return prior, fmt.Errorf("%w: prior entry %s", ErrDuplicatePosting, prior.EntryID)
			}
			return nil, ErrDuplicatePosting
		}
		logger.Error("Failed to save entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	metrics.PostingsTotal.Inc()
	logger.Info("Entry posted", slog.String("entry_id", entryID), slog.String("source_type", string(sourceType)), slog.String("source_id", req.SourceID))
	return &entry, nil
}

// GetEntry retrieves an entry with its lines.
func (s *ledgerService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.ledgerRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		}
		return nil, err
	}
	return entry, nil
}

// EntriesForSource reconstructs what a business event posted.
func (s *ledgerService) EntriesForSource(ctx context.Context, sourceType domain.SourceType, sourceID string) ([]domain.JournalEntry, error) {
	entries, err := s.ledgerRepo.FindEntriesBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to find entries for source %s/%s: %w", sourceType, sourceID, err)
	}
	return entries, nil
}

// ReverseEntry posts the offsetting entry for a previously posted entry and
// links the pair inside one transaction.
func (s *ledgerService) ReverseEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.ledgerRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: status is %s", ErrEntryNotPosted, original.Status)
	}
	if original.OriginalEntryID != nil {
		return nil, ErrAlreadyReversal
	}

	now := time.Now().UTC()
	reversingID := uuid.NewString()

	reversedLines := make([]domain.JournalLine, len(original.Lines))
	for i, line := range original.Lines {
		reversedLines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     reversingID,
			AccountCode: line.AccountCode,
			Debit:       line.Credit,
			Credit:      line.Debit,
			PartyID:     line.PartyID,
			SessionID:   line.SessionID,
			Memo:        line.Memo,
		}
	}

	reversing := domain.JournalEntry{
		EntryID:   reversingID,
		EntryDate: original.EntryDate,
		PostedAt:  now,
		// The reversal's idempotency key derives from the original entry, so
		// retrying a reversal cannot double-post.
		SourceType:      domain.SourceReversal,
		SourceID:        original.EntryID,
		IdempotencyKey:  "reversal-" + original.EntryID,
		Memo:            fmt.Sprintf("Reversal of: %s", original.Memo),
		CurrencyCode:    original.CurrencyCode,
		Status:          domain.Posted,
		OriginalEntryID: &original.EntryID,
		Lines:           reversedLines,
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

	if err := s.ledgerRepo.SaveEntryInTx(ctx, tx, reversing); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: entry %s is already reversed", ErrDuplicatePosting, original.EntryID)
		}
		logger.Error("Failed to save reversing entry", slog.String("error", err.Error()), slog.String("original_entry_id", original.EntryID))
		return nil, fmt.Errorf("failed to save reversing entry: %w", err)
	}
	if err := s.ledgerRepo.UpdateEntryStatusAndLinks(ctx, tx, original.EntryID, domain.Reversed, &reversingID, userID, now); err != nil {
		logger.Error("Failed to link reversed entry", slog.String("error", err.Error()), slog.String("original_entry_id", original.EntryID))
		return nil, fmt.Errorf("failed to update original entry status: %w", err)
	}
	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	metrics.PostingsTotal.Inc()
	logger.Info("Entry reversed", slog.String("original_entry_id", original.EntryID), slog.String("reversing_entry_id", reversingID))
	return &reversing, nil
}

// AccountBalance derives an account balance from its postings.
func (s *ledgerService) AccountBalance(ctx context.Context, code domain.AccountCode, asOf *time.Time) (domain.Amount, error) {
	if _, err := s.accountSvc.GetAccountByCode(ctx, code); err != nil {
		return 0, err
	}
	return s.ledgerRepo.AccountBalance(ctx, code, asOf)
}

// AccountStatement lists an account's lines, paginated.
func (s *ledgerService) AccountStatement(ctx context.Context, code domain.AccountCode, params dto.ListLinesParams) (*dto.AccountStatementResponse, error) {
	if _, err := s.accountSvc.GetAccountByCode(ctx, code); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	lines, nextToken, err := s.ledgerRepo.ListLinesByAccount(ctx, code, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list lines for account %s: %w", code, err)
	}

	return &dto.AccountStatementResponse{
		AccountCode: string(code),
		Lines:       dto.ToLineResponses(lines, s.exponent),
		NextToken:   nextToken,
	}, nil
}
