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

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for the chart of accounts.
func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountRepositoryFacade {
	return &PgxAccountRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `
	code, name, account_type, currency_code, COALESCE(parent_code, ''), description, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.CurrencyCode,
		&m.ParentCode,
		&m.Description,
		&m.IsActive,
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

// FindAccountByCode retrieves a specific account by its unique code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1;`

	m, err := scanAccount(r.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find account "+string(code), err)
	}

	account := mapping.ToDomainAccount(*m)
	return &account, nil
}

// FindAccountsByCodes retrieves multiple accounts keyed by code. Missing
// codes are simply absent from the map; callers decide whether that is fatal.
func (r *PgxAccountRepository) FindAccountsByCodes(ctx context.Context, codes []domain.AccountCode) (map[domain.AccountCode]domain.Account, error) {
	if len(codes) == 0 {
		return map[domain.AccountCode]domain.Account{}, nil
	}

	codeStrs := make([]string, len(codes))
	for i, c := range codes {
		codeStrs[i] = string(c)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, codeStrs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query accounts by codes", err)
	}
	defer rows.Close()

	accounts := make(map[domain.AccountCode]domain.Account, len(codes))
	for rows.Next() {
		m, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", scanErr)
		}
		account := mapping.ToDomainAccount(*m)
		accounts[account.Code] = account
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}

// ListAccounts retrieves accounts ordered by code, optionally only active ones.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code;`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	modelAccounts := []models.Account{}
	for rows.Next() {
		m, scanErr := scanAccount(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", scanErr)
		}
		modelAccounts = append(modelAccounts, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return mapping.ToDomainAccountSlice(modelAccounts), nil
}

// SaveAccount persists a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (
			code, name, account_type, currency_code, parent_code, description, is_active,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.Code,
		m.Name,
		m.AccountType,
		m.CurrencyCode,
		m.ParentCode,
		m.Description,
		m.IsActive,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert account "+m.Code, err)
	}
	return nil
}

// UpdateAccount updates an existing account's details. Code and type are
// immutable once postings may reference them.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		UPDATE accounts
		SET name = $2,
		    description = $3,
		    parent_code = NULLIF($4, ''),
		    is_active = $5,
		    last_updated_at = $6,
		    last_updated_by = $7
		WHERE code = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.Code,
		m.Name,
		m.Description,
		m.ParentCode,
		m.IsActive,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update account "+m.Code, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeactivateAccount marks an account as inactive. Existing postings keep
// referencing it; it just stops accepting new ones.
func (r *PgxAccountRepository) DeactivateAccount(ctx context.Context, code domain.AccountCode, userID string, now time.Time) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE,
		    last_updated_at = $2,
		    last_updated_by = $3
		WHERE code = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, code, now, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to deactivate account "+string(code), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
