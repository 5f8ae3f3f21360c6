package repositories

import (
	"context"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// Begin starts a new database transaction
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// PartyLocker serializes read-check-write spans against a single party.
type PartyLocker interface {
	// AcquirePartyLock takes an advisory lock scoped to the given transaction.
	// Concurrent allocation or credit-sale commits against the same party
	// block here until the holder commits or rolls back.
	AcquirePartyLock(ctx context.Context, tx pgx.Tx, partyID domain.PartyID) error
}
