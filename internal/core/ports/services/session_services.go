package services

import (
	"context"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/dto"
)

// SessionSvcFacade defines cashier session lifecycle, cash counting and
// reconciliation operations.
type SessionSvcFacade interface {
	// OpenSession opens a session; at most one Open session may exist per
	// (channel, cashier) pair.
	OpenSession(ctx context.Context, req dto.OpenSessionRequest, cashierID string) (*domain.CashierSession, error)

	// GetSession retrieves a session.
	GetSession(ctx context.Context, sessionID string) (*domain.CashierSession, error)

	// ListSessions retrieves recent sessions for a cashier.
	ListSessions(ctx context.Context, cashierID string, limit int) ([]domain.CashierSession, error)

	// RecordCashCount snapshots declared vs ledger-expected for one account
	// during an Open session and flags it when the variance exceeds the
	// configured tolerance.
	RecordCashCount(ctx context.Context, sessionID string, req dto.RecordCashCountRequest, countedBy string) (*domain.CashCount, error)

	// ReviewCashCount attaches a supervisor review to a flagged count.
	ReviewCashCount(ctx context.Context, countID string, req dto.ReviewCashCountRequest, reviewerID string) (*domain.CashCount, error)

	// ListCashCounts lists a session's counts, oldest first.
	ListCashCounts(ctx context.Context, sessionID string) ([]domain.CashCount, error)

	// CloseSession transitions Open -> Closed, recording a final count per
	// declared account.
	CloseSession(ctx context.Context, sessionID string, req dto.CloseSessionRequest, userID string) (*domain.CashierSession, []domain.CashCount, error)

	// VerifyMobileMoney records confirmation state for a batch of
	// mobile-money transaction refs attributed to the session.
	VerifyMobileMoney(ctx context.Context, sessionID string, req dto.VerifyMobileMoneyRequest, verifierID string) ([]domain.MobileMoneyCheck, error)

	// ListMobileMoneyChecks lists a session's verification records.
	ListMobileMoneyChecks(ctx context.Context, sessionID string) ([]domain.MobileMoneyCheck, error)

	// CreateReconciliation produces the declared-vs-expected snapshot a
	// supervisor reviews before reconciling.
	CreateReconciliation(ctx context.Context, req dto.CreateReconciliationRequest, userID string) (*domain.Reconciliation, error)

	// ListReconciliations lists snapshots for a session.
	ListReconciliations(ctx context.Context, sessionID string) ([]domain.Reconciliation, error)

	// ReconcileSession transitions Closed -> Reconciled. Refused while any
	// flagged count lacks a variance reason or review record.
	ReconcileSession(ctx context.Context, sessionID string, userID string) (*domain.CashierSession, error)
}
