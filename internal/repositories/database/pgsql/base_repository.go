package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"hash/fnv"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, sql.ErrTxDone) && !errors.Is(err, pgx.ErrTxClosed) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// AcquirePartyLock takes a transaction-scoped advisory lock keyed by the
// party ID. The lock releases on commit or rollback, serializing
// read-check-write spans (credit checks, allocations) per party.
func (r *BaseRepository) AcquirePartyLock(ctx context.Context, tx pgx.Tx, partyID domain.PartyID) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, partyLockKey(partyID)); err != nil {
		return apperrors.NewAppError(500, "failed to acquire party lock for "+string(partyID), err)
	}
	return nil
}

// partyLockKey hashes the party ID into the bigint keyspace Postgres
// advisory locks use. Collisions only cost extra serialization.
func partyLockKey(partyID domain.PartyID) int64 {
	h := fnv.New64a()
	h.Write([]byte(partyID))
	return int64(h.Sum64())
}
