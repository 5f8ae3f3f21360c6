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
	ErrSessionAlreadyOpen       = errors.New("an open session already exists for this channel and cashier")
	ErrSessionNotOpen           = errors.New("session is not open")
	ErrInvalidSessionTransition = errors.New("invalid session state transition")
	ErrUnreviewedVariance       = errors.New("session has flagged cash counts without a variance reason or review")
	ErrUnverifiedMobileMoney    = errors.New("session has unconfirmed mobile-money transactions and no reviewed count for that channel")
	ErrNoReconciliation         = errors.New("session has no reconciliation snapshot to approve")
	ErrCountNotFound            = errors.New("cash count not found")
)

// sessionService owns the cashier session lifecycle and the declared-vs-
// expected comparisons around it. Expected amounts always come from ledger
// postings attributed to the session window.
type sessionService struct {
	sessionRepo    portsrepo.SessionRepositoryWithTx
	ledgerRepo     portsrepo.LedgerRepositoryWithTx
	accountSvc     portssvc.AccountSvcFacade
	toleranceMinor domain.Amount
	exponent       int32
}

// NewSessionService creates a new SessionService. toleranceMinor is the
// configured auto-accept threshold for unexplained variances, in minor units.
func NewSessionService(
	sessionRepo portsrepo.SessionRepositoryWithTx,
	ledgerRepo portsrepo.LedgerRepositoryWithTx,
	accountSvc portssvc.AccountSvcFacade,
	toleranceMinor domain.Amount,
	exponent int32,
) portssvc.SessionSvcFacade {
	return &sessionService{
		sessionRepo:    sessionRepo,
		ledgerRepo:     ledgerRepo,
		accountSvc:     accountSvc,
		toleranceMinor: toleranceMinor,
		exponent:       exponent,
	}
}

var _ portssvc.SessionSvcFacade = (*sessionService)(nil)

// OpenSession opens a session. The store's partial unique index makes the
// check-and-insert atomic: two concurrent opens cannot both succeed.
func (s *sessionService) OpenSession(ctx context.Context, req dto.OpenSessionRequest, cashierID string) (*domain.CashierSession, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	session := domain.CashierSession{
		SessionID: uuid.NewString(),
		Channel:   req.Channel,
		CashierID: cashierID,
		Status:    domain.SessionOpen,
		OpenedAt:  now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     cashierID,
			LastUpdatedAt: now,
			LastUpdatedBy: cashierID,
		},
	}

	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: channel %s, cashier %s", ErrSessionAlreadyOpen, req.Channel, cashierID)
		}
		logger.Error("Failed to create session", slog.String("error", err.Error()), slog.String("channel", req.Channel))
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	metrics.SessionsOpenedTotal.Inc()
	logger.Info("Session opened", slog.String("session_id", session.SessionID), slog.String("channel", req.Channel), slog.String("cashier_id", cashierID))
	return &session, nil
}

// GetSession retrieves a session.
func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*domain.CashierSession, error) {
	return s.sessionRepo.FindSessionByID(ctx, sessionID)
}

// ListSessions retrieves recent sessions for a cashier.
func (s *sessionService) ListSessions(ctx context.Context, cashierID string, limit int) ([]domain.CashierSession, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.sessionRepo.ListSessions(ctx, cashierID, limit)
}

// buildCashCount derives the expected amount for the session window and
// flags the count when |variance| exceeds the configured tolerance.
func (s *sessionService) buildCashCount(ctx context.Context, session *domain.CashierSession, accountCode domain.AccountCode, declared domain.Amount, varianceReason, countedBy string, now time.Time) (*domain.CashCount, error) {
	if _, err := s.accountSvc.GetAccountByCode(ctx, accountCode); err != nil {
		return nil, err
	}

	expected, err := s.ledgerRepo.SessionExpected(ctx, session.SessionID, accountCode)
	if err != nil {
		return nil, fmt.Errorf("failed to derive expected amount for session %s account %s: %w", session.SessionID, accountCode, err)
	}

	variance := declared - expected
	count := domain.CashCount{
		CountID:        uuid.NewString(),
		SessionID:      session.SessionID,
		AccountCode:    accountCode,
		Declared:       declared,
		Expected:       expected,
		Variance:       variance,
		HasVariance:    variance.Abs() > s.toleranceMinor,
		VarianceReason: varianceReason,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     countedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: countedBy,
		},
	}
	return &count, nil
}

// RecordCashCount snapshots declared vs expected during an Open session.
func (s *sessionService) RecordCashCount(ctx context.Context, sessionID string, req dto.RecordCashCountRequest, countedBy string) (*domain.CashCount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	session, err := s.sessionRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionOpen {
		return nil, fmt.Errorf("%w: session %s is %s", ErrSessionNotOpen, sessionID, session.Status)
	}

	declared, err := domain.AmountFromDecimal(req.Declared, s.exponent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if declared < 0 {
		return nil, fmt.Errorf("%w: declared amount must not be negative", apperrors.ErrValidation)
	}

	count, err := s.buildCashCount(ctx, session, domain.AccountCode(req.AccountCode), declared, req.VarianceReason, countedBy, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.SaveCashCount(ctx, *count); err != nil {
		return nil, fmt.Errorf("failed to save cash count: %w", err)
	}

	if count.HasVariance {
		metrics.VarianceFlaggedTotal.Inc()
		logger.Warn("Cash count variance flagged",
			slog.String("session_id", sessionID),
			slog.String("account", req.AccountCode),
			slog.Int64("variance", int64(count.Variance)))
	}
	return count, nil
}

// ReviewCashCount attaches a supervisor review record to a count.
func (s *sessionService) ReviewCashCount(ctx context.Context, countID string, req dto.ReviewCashCountRequest, reviewerID string) (*domain.CashCount, error) {
	count, err := s.sessionRepo.FindCashCountByID(ctx, countID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCountNotFound, countID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	count.ReviewedBy = reviewerID
	count.ReviewedAt = &now
	count.ReviewNotes = req.Notes
	count.LastUpdatedAt = now
	count.LastUpdatedBy = reviewerID

	if err := s.sessionRepo.UpdateCashCountReview(ctx, *count); err != nil {
		return nil, fmt.Errorf("failed to update cash count review: %w", err)
	}
	return count, nil
}

// ListCashCounts lists a session's counts, oldest first.
func (s *sessionService) ListCashCounts(ctx context.Context, sessionID string) ([]domain.CashCount, error) {
	if _, err := s.sessionRepo.FindSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListCashCountsBySession(ctx, sessionID)
}

// CloseSession transitions Open -> Closed, recording a final count per
// declared account. The counts and the status transition commit in one
// transaction, so a failure partway leaves neither behind. Once closed the
// session accepts no further postings.
func (s *sessionService) CloseSession(ctx context.Context, sessionID string, req dto.CloseSessionRequest, userID string) (*domain.CashierSession, []domain.CashCount, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	session, err := s.sessionRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status != domain.SessionOpen {
		return nil, nil, fmt.Errorf("%w: cannot close a %s session", ErrInvalidSessionTransition, session.Status)
	}

	now := time.Now().UTC()

	tx, err := s.sessionRepo.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer s.sessionRepo.Rollback(ctx, tx)

	flagged := 0
	finalCounts := make([]domain.CashCount, 0, len(req.Declared))
	for _, declared := range req.Declared {
		amount, convErr := domain.AmountFromDecimal(declared.Amount, s.exponent)
		if convErr != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, convErr)
		}
		count, buildErr := s.buildCashCount(ctx, session, domain.AccountCode(declared.AccountCode), amount, "", userID, now)
		if buildErr != nil {
			return nil, nil, buildErr
		}
		if saveErr := s.sessionRepo.SaveCashCountInTx(ctx, tx, *count); saveErr != nil {
			return nil, nil, fmt.Errorf("failed to save closing count: %w", saveErr)
		}
		if count.HasVariance {
			flagged++
		}
		finalCounts = append(finalCounts, *count)
	}

	if err := s.sessionRepo.CloseSessionInTx(ctx, tx, sessionID, now, userID); err != nil {
		return nil, nil, fmt.Errorf("failed to close session: %w", err)
	}
	if err := s.sessionRepo.Commit(ctx, tx); err != nil {
		return nil, nil, err
	}

	if flagged > 0 {
		metrics.VarianceFlaggedTotal.Add(float64(flagged))
	}

	session.Status = domain.SessionClosed
	session.ClosedAt = &now
	session.LastUpdatedAt = now
	session.LastUpdatedBy = userID

	logger.Info("Session closed", slog.String("session_id", sessionID), slog.Int("final_counts", len(finalCounts)))
	return session, finalCounts, nil
}

// VerifyMobileMoney records confirmation state for a batch of provider
// transaction refs attributed to the session.
func (s *sessionService) VerifyMobileMoney(ctx context.Context, sessionID string, req dto.VerifyMobileMoneyRequest, verifierID string) ([]domain.MobileMoneyCheck, error) {
	session, err := s.sessionRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionReconciled {
		return nil, fmt.Errorf("%w: session already reconciled", ErrInvalidSessionTransition)
	}

	now := time.Now().UTC()
	checks := make([]domain.MobileMoneyCheck, len(req.Checks))
	for i, c := range req.Checks {
		checks[i] = domain.MobileMoneyCheck{
			CheckID:    uuid.NewString(),
			SessionID:  sessionID,
			TxnRef:     c.TxnRef,
			Confirmed:  c.Confirmed,
			Flagged:    !c.Confirmed,
			Notes:      c.Notes,
			VerifiedBy: verifierID,
			VerifiedAt: &now,
		}
	}

	if err := s.sessionRepo.SaveChecks(ctx, checks); err != nil {
		return nil, fmt.Errorf("failed to save mobile-money checks: %w", err)
	}
	return checks, nil
}

// ListMobileMoneyChecks lists a session's verification records.
func (s *sessionService) ListMobileMoneyChecks(ctx context.Context, sessionID string) ([]domain.MobileMoneyCheck, error) {
	if _, err := s.sessionRepo.FindSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListChecksBySession(ctx, sessionID)
}

// CreateReconciliation produces a declared-vs-expected snapshot. Bound to a
// session the expected side is the session window; unbound it is the account
// balance at snapshot time.
func (s *sessionService) CreateReconciliation(ctx context.Context, req dto.CreateReconciliationRequest, userID string) (*domain.Reconciliation, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.SessionID != "" {
		session, err := s.sessionRepo.FindSessionByID(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		if session.Status == domain.SessionReconciled {
			return nil, fmt.Errorf("%w: session already reconciled", ErrInvalidSessionTransition)
		}
	}

	now := time.Now().UTC()
	lines := make([]domain.ReconciliationLine, 0, len(req.Declared))
	for _, declared := range req.Declared {
		code := domain.AccountCode(declared.AccountCode)
		if _, err := s.accountSvc.GetAccountByCode(ctx, code); err != nil {
			return nil, err
		}

		amount, err := domain.AmountFromDecimal(declared.Amount, s.exponent)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}

		var expected domain.Amount
		if req.SessionID != "" {
			expected, err = s.ledgerRepo.SessionExpected(ctx, req.SessionID, code)
		} else {
			expected, err = s.ledgerRepo.AccountBalance(ctx, code, &now)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to derive expected balance for %s: %w", code, err)
		}

		lines = append(lines, domain.ReconciliationLine{
			AccountCode: code,
			Declared:    amount,
			Expected:    expected,
			Variance:    amount - expected,
		})
	}

	rec := domain.Reconciliation{
		ReconciliationID: uuid.NewString(),
		SessionID:        req.SessionID,
		Notes:            req.Notes,
		Lines:            lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.sessionRepo.SaveReconciliation(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}

	logger.Info("Reconciliation created", slog.String("reconciliation_id", rec.ReconciliationID), slog.String("session_id", req.SessionID))
	return &rec, nil
}

// ListReconciliations lists snapshots for a session.
func (s *sessionService) ListReconciliations(ctx context.Context, sessionID string) ([]domain.Reconciliation, error) {
	if _, err := s.sessionRepo.FindSessionByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListReconciliationsBySession(ctx, sessionID)
}

// ReconcileSession transitions Closed -> Reconciled. It refuses while any
// flagged count lacks an explanation, while the mobile-money channel has
// unconfirmed transactions without a reviewed count, or while no
// reconciliation snapshot exists for the supervisor to have approved.
func (s *sessionService) ReconcileSession(ctx context.Context, sessionID string, userID string) (*domain.CashierSession, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	session, err := s.sessionRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionClosed {
		return nil, fmt.Errorf("%w: session must be CLOSED to reconcile, is %s", ErrInvalidSessionTransition, session.Status)
	}

	counts, err := s.sessionRepo.ListCashCountsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash counts: %w", err)
	}
	for _, count := range counts {
		if count.HasVariance && !count.Reviewed() {
			return nil, fmt.Errorf("%w: count %s on account %s", ErrUnreviewedVariance, count.CountID, count.AccountCode)
		}
	}

	checks, err := s.sessionRepo.ListChecksBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mobile-money checks: %w", err)
	}
	if !allConfirmed(checks) && !mobileMoneyReviewed(counts) {
		return nil, fmt.Errorf("%w: session %s", ErrUnverifiedMobileMoney, sessionID)
	}

	recs, err := s.sessionRepo.ListReconciliationsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: session %s", ErrNoReconciliation, sessionID)
	}

	now := time.Now().UTC()
	if err := s.sessionRepo.MarkReconciled(ctx, sessionID, userID, now); err != nil {
		return nil, fmt.Errorf("failed to mark session reconciled: %w", err)
	}

	session.Status = domain.SessionReconciled
	session.LastUpdatedAt = now
	session.LastUpdatedBy = userID

	metrics.SessionsReconciledTotal.Inc()
	logger.Info("Session reconciled", slog.String("session_id", sessionID))
	return session, nil
}

// allConfirmed reports whether every recorded check is confirmed. A session
// with no checks has nothing to gate on.
func allConfirmed(checks []domain.MobileMoneyCheck) bool {
	for _, c := range checks {
		if !c.Confirmed {
			return false
		}
	}
	return true
}

// mobileMoneyReviewed reports whether the mobile-money account has at least
// one explained or reviewed count, which is the manual fallback when the
// provider transactions could not all be confirmed.
func mobileMoneyReviewed(counts []domain.CashCount) bool {
	for _, c := range counts {
		if c.AccountCode == domain.AccountMobileMoney && c.Reviewed() {
			return true
		}
	}
	return false
}
