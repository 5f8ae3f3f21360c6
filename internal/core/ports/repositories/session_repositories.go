package repositories

import (
	"context"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// SessionReader defines read operations for cashier sessions.
type SessionReader interface {
	// FindSessionByID retrieves a specific session.
	FindSessionByID(ctx context.Context, sessionID string) (*domain.CashierSession, error)

	// FindOpenSession retrieves the Open session for a (channel, cashier)
	// pair, or apperrors.ErrNotFound when none is open.
	FindOpenSession(ctx context.Context, channel, cashierID string) (*domain.CashierSession, error)

	// ListSessions retrieves recent sessions for a cashier, newest first.
	ListSessions(ctx context.Context, cashierID string, limit int) ([]domain.CashierSession, error)
}

// SessionWriter defines write operations for cashier sessions.
type SessionWriter interface {
	// CreateSession inserts a new Open session. The store enforces at most
	// one Open session per (channel, cashier); a violation surfaces as
	// apperrors.ErrDuplicate.
	CreateSession(ctx context.Context, session domain.CashierSession) error

	// CloseSession transitions a session to Closed and stamps ClosedAt.
	CloseSession(ctx context.Context, sessionID string, closedAt time.Time, updatedBy string) error

	// CloseSessionInTx is CloseSession inside a caller-owned transaction, so
	// the final counts and the status transition commit together.
	CloseSessionInTx(ctx context.Context, tx pgx.Tx, sessionID string, closedAt time.Time, updatedBy string) error

	// MarkReconciled transitions a Closed session to Reconciled.
	MarkReconciled(ctx context.Context, sessionID string, updatedBy string, now time.Time) error
}

// CashCountRepository defines operations for cash-count snapshots.
type CashCountRepository interface {
	// SaveCashCount persists a count snapshot.
	SaveCashCount(ctx context.Context, count domain.CashCount) error

	// SaveCashCountInTx persists a count snapshot inside a caller-owned
	// transaction.
	SaveCashCountInTx(ctx context.Context, tx pgx.Tx, count domain.CashCount) error

	// FindCashCountByID retrieves a specific count.
	FindCashCountByID(ctx context.Context, countID string) (*domain.CashCount, error)

	// ListCashCountsBySession retrieves all counts for a session, oldest first.
	ListCashCountsBySession(ctx context.Context, sessionID string) ([]domain.CashCount, error)

	// UpdateCashCountReview attaches a variance reason and/or supervisor
	// review record to a count.
	UpdateCashCountReview(ctx context.Context, count domain.CashCount) error
}

// ReconciliationRepository defines operations for reconciliation snapshots.
type ReconciliationRepository interface {
	// SaveReconciliation persists a snapshot with its per-account lines.
	SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error

	// FindReconciliationByID retrieves a snapshot with its lines.
	FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error)

	// ListReconciliationsBySession retrieves snapshots for a session.
	ListReconciliationsBySession(ctx context.Context, sessionID string) ([]domain.Reconciliation, error)
}

// MobileMoneyRepository defines operations for mobile-money verification.
type MobileMoneyRepository interface {
	// SaveChecks persists verification records for a batch of transaction refs.
	SaveChecks(ctx context.Context, checks []domain.MobileMoneyCheck) error

	// ListChecksBySession retrieves all checks recorded for a session.
	ListChecksBySession(ctx context.Context, sessionID string) ([]domain.MobileMoneyCheck, error)
}

// SessionRepositoryFacade combines all session-related repository interfaces.
type SessionRepositoryFacade interface {
	SessionReader
	SessionWriter
	CashCountRepository
	ReconciliationRepository
	MobileMoneyRepository
}

// SessionRepositoryWithTx extends SessionRepositoryFacade with transaction
// capabilities.
type SessionRepositoryWithTx interface {
	SessionRepositoryFacade
	TransactionManager
}
