package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	"github.com/dukapos/pos_ledger_app/internal/models"
	"github.com/dukapos/pos_ledger_app/internal/utils/mapping"
	"github.com/dukapos/pos_ledger_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for journal entries and lines.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

const entryColumns = `
	entry_id, entry_date, posted_at, source_type, source_id, idempotency_key,
	memo, currency_code, status, original_entry_id, reversing_entry_id,
	created_at, created_by, last_updated_at, last_updated_by`

// signedSum is the balance convention applied wherever postings are summed:
// debits increase ASSET/EXPENSE accounts, credits increase the rest.
const signedSum = `
	COALESCE(SUM(CASE WHEN a.account_type IN ('ASSET', 'EXPENSE')
	                  THEN l.debit - l.credit
	                  ELSE l.credit - l.debit END), 0)`

// SaveEntry persists an entry and all of its lines atomically in its own
// transaction.
func (r *PgxLedgerRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.SaveEntryInTx(ctx, tx, entry); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// SaveEntryInTx persists an entry and its lines inside a caller-owned
// transaction. A hit on the (source_type, source_id, idempotency_key) unique
// index surfaces as apperrors.ErrDuplicate.
func (r *PgxLedgerRepository) SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	modelEntry := mapping.ToModelJournalEntry(entry)
	entryQuery := `
		INSERT INTO journal_entries (
			entry_id, entry_date, posted_at, source_type, source_id, idempotency_key,
			memo, currency_code, status, original_entry_id, reversing_entry_id,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := tx.Exec(ctx, entryQuery,
		modelEntry.EntryID,
		modelEntry.EntryDate,
		modelEntry.PostedAt,
		modelEntry.SourceType,
		modelEntry.SourceID,
		modelEntry.IdempotencyKey,
		modelEntry.Memo,
		modelEntry.CurrencyCode,
		modelEntry.Status,
		modelEntry.OriginalEntryID,
		modelEntry.ReversingEntryID,
		modelEntry.CreatedAt,
		modelEntry.CreatedBy,
		modelEntry.LastUpdatedAt,
		modelEntry.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert journal entry "+modelEntry.EntryID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (line_id, entry_id, account_code, debit, credit, party_id, session_id, memo)
		VALUES ($1, $2, $3, NULLIF($4, 0), NULLIF($5, 0), NULLIF($6, ''), NULLIF($7, ''), $8);
	`
	for _, line := range entry.Lines {
		modelLine := mapping.ToModelJournalLine(line)
		batch.Queue(lineQuery,
			modelLine.LineID,
			modelLine.EntryID,
			modelLine.AccountCode,
			modelLine.Debit,
			modelLine.Credit,
			modelLine.PartyID,
			modelLine.SessionID,
			modelLine.Memo,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute line batch for entry "+modelEntry.EntryID, err)
	}

	return nil
}

// scanEntry scans one journal entry row.
func scanEntry(row pgx.Row) (*models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.EntryDate,
		&m.PostedAt,
		&m.SourceType,
		&m.SourceID,
		&m.IdempotencyKey,
		&m.Memo,
		&m.CurrencyCode,
		&m.Status,
		&m.OriginalEntryID,
		&m.ReversingEntryID,
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

// FindEntryByID retrieves a journal entry together with its lines.
func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`

	modelEntry, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry "+entryID, err)
	}

	lines, err := r.findLinesByEntryIDs(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}

	domainEntry := mapping.ToDomainJournalEntry(*modelEntry)
	domainEntry.Lines = lines[entryID]
	return &domainEntry, nil
}

// FindEntriesBySource retrieves all entries produced by one business event,
// oldest first, with their lines.
func (r *PgxLedgerRepository) FindEntriesBySource(ctx context.Context, sourceType domain.SourceType, sourceID string) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE source_type = $1 AND source_id = $2
		ORDER BY posted_at, entry_id;
	`
	rows, err := r.Pool.Query(ctx, query, sourceType, sourceID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entries for source "+sourceID, err)
	}
	defer rows.Close()

	modelEntries := []models.JournalEntry{}
	for rows.Next() {
		m, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry row for source "+sourceID, scanErr)
		}
		modelEntries = append(modelEntries, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry rows for source "+sourceID, err)
	}

	entryIDs := make([]string, len(modelEntries))
	for i, m := range modelEntries {
		entryIDs[i] = m.EntryID
	}
	linesByEntry, err := r.findLinesByEntryIDs(ctx, entryIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.JournalEntry, len(modelEntries))
	for i, m := range modelEntries {
		entries[i] = mapping.ToDomainJournalEntry(m)
		entries[i].Lines = linesByEntry[m.EntryID]
	}
	return entries, nil
}

// FindEntryBySourceKey looks up an entry by its full idempotency key.
func (r *PgxLedgerRepository) FindEntryBySourceKey(ctx context.Context, sourceType domain.SourceType, sourceID, idempotencyKey string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE source_type = $1 AND source_id = $2 AND idempotency_key = $3;
	`
	modelEntry, err := scanEntry(r.Pool.QueryRow(ctx, query, sourceType, sourceID, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find entry by source key "+sourceID, err)
	}

	lines, err := r.findLinesByEntryIDs(ctx, []string{modelEntry.EntryID})
	if err != nil {
		return nil, err
	}

	domainEntry := mapping.ToDomainJournalEntry(*modelEntry)
	domainEntry.Lines = lines[modelEntry.EntryID]
	return &domainEntry, nil
}

// findLinesByEntryIDs retrieves all lines for the given entries, keyed by
// entry ID.
func (r *PgxLedgerRepository) findLinesByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.JournalLine, error) {
	if len(entryIDs) == 0 {
		return map[string][]domain.JournalLine{}, nil
	}

	query := `
		SELECT line_id, entry_id, account_code, COALESCE(debit, 0), COALESCE(credit, 0),
		       COALESCE(party_id, ''), COALESCE(session_id, ''), COALESCE(memo, '')
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal lines", err)
	}
	defer rows.Close()

	linesMap := make(map[string][]domain.JournalLine)
	for rows.Next() {
		var m models.JournalLine
		if err := rows.Scan(
			&m.LineID,
			&m.EntryID,
			&m.AccountCode,
			&m.Debit,
			&m.Credit,
			&m.PartyID,
			&m.SessionID,
			&m.Memo,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal line row", err)
		}
		linesMap[m.EntryID] = append(linesMap[m.EntryID], mapping.ToDomainJournalLine(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal line rows", err)
	}
	return linesMap, nil
}

// ListLinesByAccount retrieves a paginated account statement, newest first,
// using token-based pagination over (posted_at, line_id).
func (r *PgxLedgerRepository) ListLinesByAccount(ctx context.Context, accountCode domain.AccountCode, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to know whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT l.line_id, l.entry_id, l.account_code, COALESCE(l.debit, 0), COALESCE(l.credit, 0),
		       COALESCE(l.party_id, ''), COALESCE(l.session_id, ''), COALESCE(l.memo, ''), e.posted_at
		FROM journal_lines l
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE l.account_code = $1
	`
	orderByClause := `ORDER BY e.posted_at DESC, l.line_id DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{accountCode}

	if nextToken != nil && *nextToken != "" {
		lastPostedAt, lastLineID, decodeErr := pagination.DecodeCursor(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := `AND (e.posted_at, l.line_id) < ($2, $3)`
		args = append(args, lastPostedAt, lastLineID)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query lines for account "+string(accountCode), err)
	}
	defer rows.Close()

	type lineWithCursor struct {
		line     models.JournalLine
		postedAt time.Time
	}
	scanned := make([]lineWithCursor, 0, fetchLimit)
	for rows.Next() {
		var lc lineWithCursor
		if err := rows.Scan(
			&lc.line.LineID,
			&lc.line.EntryID,
			&lc.line.AccountCode,
			&lc.line.Debit,
			&lc.line.Credit,
			&lc.line.PartyID,
			&lc.line.SessionID,
			&lc.line.Memo,
			&lc.postedAt,
		); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan line row for account "+string(accountCode), err)
		}
		scanned = append(scanned, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating line rows for account "+string(accountCode), err)
	}

	var nextTokenVal *string
	if len(scanned) > limit {
		last := scanned[limit-1]
		token := pagination.EncodeCursor(last.postedAt, last.line.LineID)
		nextTokenVal = &token
		scanned = scanned[:limit]
	}

	lines := make([]domain.JournalLine, len(scanned))
	for i, lc := range scanned {
		lines[i] = mapping.ToDomainJournalLine(lc.line)
	}
	return lines, nextTokenVal, nil
}

// UpdateEntryStatusAndLinks marks an entry reversed and records the linkage
// to its reversing entry, inside the caller's transaction.
func (r *PgxLedgerRepository) UpdateEntryStatusAndLinks(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, reversingEntryID *string, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $2,
		    reversing_entry_id = $3,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE entry_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, entryID, status, reversingEntryID, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update entry status/links for "+entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AccountBalance sums the signed postings against an account. Reversed
// entries stay in the sum: their reversing entries cancel them out.
func (r *PgxLedgerRepository) AccountBalance(ctx context.Context, accountCode domain.AccountCode, asOf *time.Time) (domain.Amount, error) {
	query := `
		SELECT ` + signedSum + `
		FROM journal_lines l
		JOIN journal_entries e ON l.entry_id = e.entry_id
		JOIN accounts a ON l.account_code = a.code
		WHERE l.account_code = $1 AND ($2::timestamptz IS NULL OR e.posted_at <= $2);
	`
	var balance int64
	if err := r.Pool.QueryRow(ctx, query, accountCode, asOf).Scan(&balance); err != nil {
		return 0, apperrors.NewAppError(500, "failed to derive balance for account "+string(accountCode), err)
	}
	return domain.Amount(balance), nil
}

const partyOutstandingQuery = `
	SELECT ` + signedSum + `
	FROM journal_lines l
	JOIN accounts a ON l.account_code = a.code
	WHERE l.party_id = $1 AND l.account_code = $2;
`

// PartyOutstanding sums the signed postings for one party against the given
// control account.
func (r *PgxLedgerRepository) PartyOutstanding(ctx context.Context, partyID domain.PartyID, accountCode domain.AccountCode) (domain.Amount, error) {
	var outstanding int64
	if err := r.Pool.QueryRow(ctx, partyOutstandingQuery, partyID, accountCode).Scan(&outstanding); err != nil {
		return 0, apperrors.NewAppError(500, "failed to derive outstanding for party "+string(partyID), err)
	}
	return domain.Amount(outstanding), nil
}

// PartyOutstandingInTx is PartyOutstanding inside a caller-owned transaction,
// for use under an advisory party lock.
func (r *PgxLedgerRepository) PartyOutstandingInTx(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, accountCode domain.AccountCode) (domain.Amount, error) {
	var outstanding int64
	if err := tx.QueryRow(ctx, partyOutstandingQuery, partyID, accountCode).Scan(&outstanding); err != nil {
		return 0, apperrors.NewAppError(500, "failed to derive outstanding for party "+string(partyID), err)
	}
	return domain.Amount(outstanding), nil
}

// SessionExpected sums the postings attributed to a session window for one
// account, i.e. the system-expected takings for a cash count.
func (r *PgxLedgerRepository) SessionExpected(ctx context.Context, sessionID string, accountCode domain.AccountCode) (domain.Amount, error) {
	query := `
		SELECT ` + signedSum + `
		FROM journal_lines l
		JOIN accounts a ON l.account_code = a.code
		WHERE l.session_id = $1 AND l.account_code = $2;
	`
	var expected int64
	if err := r.Pool.QueryRow(ctx, query, sessionID, accountCode).Scan(&expected); err != nil {
		return 0, apperrors.NewAppError(500, "failed to derive expected takings for session "+sessionID, err)
	}
	return domain.Amount(expected), nil
}

// SessionStatus reports the lifecycle status of a session.
func (r *PgxLedgerRepository) SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	var status string
	err := r.Pool.QueryRow(ctx, `SELECT status FROM cashier_sessions WHERE session_id = $1;`, sessionID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", apperrors.NewAppError(500, "failed to find status for session "+sessionID, err)
	}
	return domain.SessionStatus(status), nil
}
