package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	"github.com/dukapos/pos_ledger_app/internal/models"
	"github.com/dukapos/pos_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxSessionRepository struct {
	BaseRepository
}

// newPgxSessionRepository creates a new repository for cashier sessions,
// cash counts, reconciliations and mobile-money checks.
func newPgxSessionRepository(pool *pgxpool.Pool) portsrepo.SessionRepositoryWithTx {
	return &PgxSessionRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxSessionRepository implements portsrepo.SessionRepositoryWithTx
var _ portsrepo.SessionRepositoryWithTx = (*PgxSessionRepository)(nil)

// pgxExecutor is satisfied by both *pgxpool.Pool and pgx.Tx, letting single
// statements run standalone or inside a caller-owned transaction.
type pgxExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const sessionColumns = `
	session_id, channel, cashier_id, status, opened_at, closed_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanSession(row pgx.Row) (*models.CashierSession, error) {
	var m models.CashierSession
	err := row.Scan(
		&m.SessionID,
		&m.Channel,
		&m.CashierID,
		&m.Status,
		&m.OpenedAt,
		&m.ClosedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindSessionByID retrieves a specific session.
func (r *PgxSessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.CashierSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM cashier_sessions WHERE session_id = $1;`

	m, err := scanSession(r.Pool.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find session "+sessionID, err)
	}

	session := mapping.ToDomainCashierSession(*m)
	return &session, nil
}

// FindOpenSession retrieves the Open session for a (channel, cashier) pair.
func (r *PgxSessionRepository) FindOpenSession(ctx context.Context, channel, cashierID string) (*domain.CashierSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM cashier_sessions WHERE channel = $1 AND cashier_id = $2 AND status = 'OPEN';`

	m, err := scanSession(r.Pool.QueryRow(ctx, query, channel, cashierID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find open session for channel "+channel, err)
	}

	session := mapping.ToDomainCashierSession(*m)
	return &session, nil
}

// ListSessions retrieves recent sessions for a cashier, newest first.
func (r *PgxSessionRepository) ListSessions(ctx context.Context, cashierID string, limit int) ([]domain.CashierSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM cashier_sessions
		WHERE cashier_id = $1
		ORDER BY opened_at DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, cashierID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list sessions for cashier "+cashierID, err)
	}
	defer rows.Close()

	sessions := []domain.CashierSession{}
	for rows.Next() {
		m, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan session row for cashier "+cashierID, scanErr)
		}
		sessions = append(sessions, mapping.ToDomainCashierSession(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating session rows for cashier "+cashierID, err)
	}
	return sessions, nil
}

// CreateSession inserts a new Open session. The partial unique index on
// (channel, cashier_id) WHERE status = 'OPEN' makes concurrent opens lose
// with apperrors.ErrDuplicate.
func (r *PgxSessionRepository) CreateSession(ctx context.Context, session domain.CashierSession) error {
	m := mapping.ToModelCashierSession(session)
	query := `
		INSERT INTO cashier_sessions (
			session_id, channel, cashier_id, status, opened_at, closed_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.SessionID,
		m.Channel,
		m.CashierID,
		m.Status,
		m.OpenedAt,
		m.ClosedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert session "+m.SessionID, err)
	}
	return nil
}

// closeSession performs the Open -> Closed transition on the given executor.
// The status guard in the WHERE clause keeps the transition one-way.
func closeSession(ctx context.Context, db pgxExecutor, sessionID string, closedAt time.Time, updatedBy string) error {
	query := `
		UPDATE cashier_sessions
		SET status = 'CLOSED',
		    closed_at = $2,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE session_id = $1 AND status = 'OPEN';
	`
	cmdTag, err := db.Exec(ctx, query, sessionID, closedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to close session "+sessionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

// CloseSession transitions an Open session to Closed and stamps ClosedAt.
func (r *PgxSessionRepository) CloseSession(ctx context.Context, sessionID string, closedAt time.Time, updatedBy string) error {
	return closeSession(ctx, r.Pool, sessionID, closedAt, updatedBy)
}

// CloseSessionInTx is CloseSession inside a caller-owned transaction.
func (r *PgxSessionRepository) CloseSessionInTx(ctx context.Context, tx pgx.Tx, sessionID string, closedAt time.Time, updatedBy string) error {
	return closeSession(ctx, tx, sessionID, closedAt, updatedBy)
}

// MarkReconciled transitions a Closed session to Reconciled.
func (r *PgxSessionRepository) MarkReconciled(ctx context.Context, sessionID string, updatedBy string, now time.Time) error {
	query := `
		UPDATE cashier_sessions
		SET status = 'RECONCILED',
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE session_id = $1 AND status = 'CLOSED';
	`
	cmdTag, err := r.Pool.Exec(ctx, query, sessionID, now, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark session reconciled "+sessionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

const cashCountColumns = `
	count_id, session_id, account_code, declared, expected, variance, has_variance,
	COALESCE(variance_reason, ''), COALESCE(reviewed_by, ''), reviewed_at, COALESCE(review_notes, ''),
	created_at, created_by, last_updated_at, last_updated_by`

func scanCashCount(row pgx.Row) (*models.CashCount, error) {
	var m models.CashCount
	err := row.Scan(
		&m.CountID,
		&m.SessionID,
		&m.AccountCode,
		&m.Declared,
		&m.Expected,
		&m.Variance,
		&m.HasVariance,
		&m.VarianceReason,
		&m.ReviewedBy,
		&m.ReviewedAt,
		&m.ReviewNotes,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// saveCashCount persists a count snapshot on the given executor.
func saveCashCount(ctx context.Context, db pgxExecutor, count domain.CashCount) error {
	m := mapping.ToModelCashCount(count)
	query := `
		INSERT INTO cash_counts (
			count_id, session_id, account_code, declared, expected, variance, has_variance,
			variance_reason, reviewed_by, reviewed_at, review_notes,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, NULLIF($11, ''), $12, $13, $14, $15);
	`
	_, err := db.Exec(ctx, query,
		m.CountID,
		m.SessionID,
		m.AccountCode,
		m.Declared,
		m.Expected,
		m.Variance,
		m.HasVariance,
		m.VarianceReason,
		m.ReviewedBy,
		m.ReviewedAt,
		m.ReviewNotes,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert cash count "+m.CountID, err)
	}
	return nil
}

// SaveCashCount persists a count snapshot.
func (r *PgxSessionRepository) SaveCashCount(ctx context.Context, count domain.CashCount) error {
	return saveCashCount(ctx, r.Pool, count)
}

// SaveCashCountInTx persists a count snapshot inside a caller-owned
// transaction.
func (r *PgxSessionRepository) SaveCashCountInTx(ctx context.Context, tx pgx.Tx, count domain.CashCount) error {
	return saveCashCount(ctx, tx, count)
}

// FindCashCountByID retrieves a specific count.
func (r *PgxSessionRepository) FindCashCountByID(ctx context.Context, countID string) (*domain.CashCount, error) {
	query := `SELECT ` + cashCountColumns + ` FROM cash_counts WHERE count_id = $1;`

	m, err := scanCashCount(r.Pool.QueryRow(ctx, query, countID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find cash count "+countID, err)
	}

	count := mapping.ToDomainCashCount(*m)
	return &count, nil
}

// ListCashCountsBySession retrieves all counts for a session, oldest first.
func (r *PgxSessionRepository) ListCashCountsBySession(ctx context.Context, sessionID string) ([]domain.CashCount, error) {
	query := `
		SELECT ` + cashCountColumns + `
		FROM cash_counts
		WHERE session_id = $1
		ORDER BY created_at, count_id;
	`
	rows, err := r.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list cash counts for session "+sessionID, err)
	}
	defer rows.Close()

	modelCounts := []models.CashCount{}
	for rows.Next() {
		m, scanErr := scanCashCount(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan cash count row for session "+sessionID, scanErr)
		}
		modelCounts = append(modelCounts, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating cash count rows for session "+sessionID, err)
	}
	return mapping.ToDomainCashCountSlice(modelCounts), nil
}

// UpdateCashCountReview attaches a variance reason and/or supervisor review
// record to a count.
func (r *PgxSessionRepository) UpdateCashCountReview(ctx context.Context, count domain.CashCount) error {
	m := mapping.ToModelCashCount(count)
	query := `
		UPDATE cash_counts
		SET variance_reason = NULLIF($2, ''),
		    reviewed_by = NULLIF($3, ''),
		    reviewed_at = $4,
		    review_notes = NULLIF($5, ''),
		    last_updated_at = $6,
		    last_updated_by = $7
		WHERE count_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.CountID,
		m.VarianceReason,
		m.ReviewedBy,
		m.ReviewedAt,
		m.ReviewNotes,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update cash count review "+m.CountID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveReconciliation persists a snapshot with its per-account lines
// atomically.
func (r *PgxSessionRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	recQuery := `
		INSERT INTO reconciliations (
			reconciliation_id, session_id, notes,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7);
	`
	_, err = tx.Exec(ctx, recQuery,
		rec.ReconciliationID,
		rec.SessionID,
		rec.Notes,
		rec.CreatedAt,
		rec.CreatedBy,
		rec.LastUpdatedAt,
		rec.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert reconciliation "+rec.ReconciliationID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO reconciliation_lines (reconciliation_id, account_code, declared, expected, variance)
		VALUES ($1, $2, $3, $4, $5);
	`
	for _, line := range rec.Lines {
		batch.Queue(lineQuery,
			rec.ReconciliationID,
			string(line.AccountCode),
			int64(line.Declared),
			int64(line.Expected),
			int64(line.Variance),
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert reconciliation lines for "+rec.ReconciliationID, err)
	}

	return r.Commit(ctx, tx)
}

const reconciliationColumns = `
	reconciliation_id, COALESCE(session_id, ''), COALESCE(notes, ''),
	created_at, created_by, last_updated_at, last_updated_by`

func scanReconciliation(row pgx.Row) (*models.Reconciliation, error) {
	var m models.Reconciliation
	err := row.Scan(
		&m.ReconciliationID,
		&m.SessionID,
		&m.Notes,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// findReconciliationLines retrieves lines for the given reconciliations,
// keyed by reconciliation ID.
func (r *PgxSessionRepository) findReconciliationLines(ctx context.Context, recIDs []string) (map[string][]models.ReconciliationLine, error) {
	if len(recIDs) == 0 {
		return map[string][]models.ReconciliationLine{}, nil
	}

	query := `
		SELECT reconciliation_id, account_code, declared, expected, variance
		FROM reconciliation_lines
		WHERE reconciliation_id = ANY($1)
		ORDER BY reconciliation_id, account_code;
	`
	rows, err := r.Pool.Query(ctx, query, recIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query reconciliation lines", err)
	}
	defer rows.Close()

	linesMap := make(map[string][]models.ReconciliationLine)
	for rows.Next() {
		var l models.ReconciliationLine
		if err := rows.Scan(&l.ReconciliationID, &l.AccountCode, &l.Declared, &l.Expected, &l.Variance); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan reconciliation line row", err)
		}
		linesMap[l.ReconciliationID] = append(linesMap[l.ReconciliationID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating reconciliation line rows", err)
	}
	return linesMap, nil
}

// FindReconciliationByID retrieves a snapshot with its lines.
func (r *PgxSessionRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE reconciliation_id = $1;`

	m, err := scanReconciliation(r.Pool.QueryRow(ctx, query, reconciliationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find reconciliation "+reconciliationID, err)
	}

	linesMap, err := r.findReconciliationLines(ctx, []string{reconciliationID})
	if err != nil {
		return nil, err
	}

	rec := mapping.ToDomainReconciliation(*m, linesMap[reconciliationID])
	return &rec, nil
}

// ListReconciliationsBySession retrieves snapshots for a session, newest
// first, with their lines.
func (r *PgxSessionRepository) ListReconciliationsBySession(ctx context.Context, sessionID string) ([]domain.Reconciliation, error) {
	query := `
		SELECT ` + reconciliationColumns + `
		FROM reconciliations
		WHERE session_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list reconciliations for session "+sessionID, err)
	}
	defer rows.Close()

	modelRecs := []models.Reconciliation{}
	for rows.Next() {
		m, scanErr := scanReconciliation(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan reconciliation row for session "+sessionID, scanErr)
		}
		modelRecs = append(modelRecs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating reconciliation rows for session "+sessionID, err)
	}

	recIDs := make([]string, len(modelRecs))
	for i, m := range modelRecs {
		recIDs[i] = m.ReconciliationID
	}
	linesMap, err := r.findReconciliationLines(ctx, recIDs)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.Reconciliation, len(modelRecs))
	for i, m := range modelRecs {
		recs[i] = mapping.ToDomainReconciliation(m, linesMap[m.ReconciliationID])
	}
	return recs, nil
}

// SaveChecks persists verification records for a batch of transaction refs.
// A re-verified txn_ref overwrites its previous state.
func (r *PgxSessionRepository) SaveChecks(ctx context.Context, checks []domain.MobileMoneyCheck) error {
	if len(checks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO mobile_money_checks (check_id, session_id, txn_ref, confirmed, flagged, notes, verified_by, verified_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		ON CONFLICT (session_id, txn_ref) DO UPDATE
		SET confirmed = EXCLUDED.confirmed,
		    flagged = EXCLUDED.flagged,
		    notes = EXCLUDED.notes,
		    verified_by = EXCLUDED.verified_by,
		    verified_at = EXCLUDED.verified_at;
	`
	for _, c := range checks {
		batch.Queue(query, c.CheckID, c.SessionID, c.TxnRef, c.Confirmed, c.Flagged, c.Notes, c.VerifiedBy, c.VerifiedAt)
	}

	br := r.Pool.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to save mobile money checks", err)
	}
	return nil
}

// ListChecksBySession retrieves all checks recorded for a session.
func (r *PgxSessionRepository) ListChecksBySession(ctx context.Context, sessionID string) ([]domain.MobileMoneyCheck, error) {
	query := `
		SELECT check_id, session_id, txn_ref, confirmed, flagged, COALESCE(notes, ''),
		       COALESCE(verified_by, ''), verified_at
		FROM mobile_money_checks
		WHERE session_id = $1
		ORDER BY txn_ref;
	`
	rows, err := r.Pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list mobile money checks for session "+sessionID, err)
	}
	defer rows.Close()

	checks := []domain.MobileMoneyCheck{}
	for rows.Next() {
		var m models.MobileMoneyCheck
		if err := rows.Scan(
			&m.CheckID,
			&m.SessionID,
			&m.TxnRef,
			&m.Confirmed,
			&m.Flagged,
			&m.Notes,
			&m.VerifiedBy,
			&m.VerifiedAt,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan mobile money check row for session "+sessionID, err)
		}
		checks = append(checks, mapping.ToDomainMobileMoneyCheck(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating mobile money check rows for session "+sessionID, err)
	}
	return checks, nil
}
