package pgsql

import (
	"context"
	"errors"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	"github.com/dukapos/pos_ledger_app/internal/models"
	"github.com/dukapos/pos_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCreditRepository struct {
	BaseRepository
}

// newPgxCreditRepository creates a new repository for credit profiles.
func newPgxCreditRepository(pool *pgxpool.Pool) portsrepo.CreditRepositoryFacade {
	return &PgxCreditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxCreditRepository implements portsrepo.CreditRepositoryFacade
var _ portsrepo.CreditRepositoryFacade = (*PgxCreditRepository)(nil)

// FindProfileByPartyID retrieves the credit profile attached to a party.
func (r *PgxCreditRepository) FindProfileByPartyID(ctx context.Context, partyID domain.PartyID) (*domain.CreditProfile, error) {
	query := `
		SELECT party_id, party_type, approved, credit_limit, credit_duration_days, frozen,
		       last_repayment_at, COALESCE(last_repayment_amount, 0),
		       created_at, created_by, last_updated_at, last_updated_by
		FROM credit_profiles
		WHERE party_id = $1;
	`
	var m models.CreditProfile
	err := r.Pool.QueryRow(ctx, query, partyID).Scan(
		&m.PartyID,
		&m.PartyType,
		&m.Approved,
		&m.CreditLimit,
		&m.CreditDurationDays,
		&m.Frozen,
		&m.LastRepaymentAt,
		&m.LastRepaymentAmount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find credit profile for party "+string(partyID), err)
	}

	profile := mapping.ToDomainCreditProfile(m)
	return &profile, nil
}

// SaveProfile persists a new credit profile.
func (r *PgxCreditRepository) SaveProfile(ctx context.Context, profile domain.CreditProfile) error {
	m := mapping.ToModelCreditProfile(profile)
	query := `
		INSERT INTO credit_profiles (
			party_id, party_type, approved, credit_limit, credit_duration_days, frozen,
			last_repayment_at, last_repayment_amount,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.PartyID,
		m.PartyType,
		m.Approved,
		m.CreditLimit,
		m.CreditDurationDays,
		m.Frozen,
		m.LastRepaymentAt,
		m.LastRepaymentAmount,
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
		return apperrors.NewAppError(500, "failed to insert credit profile for party "+m.PartyID, err)
	}
	return nil
}

// UpdateProfile updates an existing credit profile.
func (r *PgxCreditRepository) UpdateProfile(ctx context.Context, profile domain.CreditProfile) error {
	m := mapping.ToModelCreditProfile(profile)
	query := `
		UPDATE credit_profiles
		SET party_type = $2,
		    approved = $3,
		    credit_limit = $4,
		    credit_duration_days = $5,
		    frozen = $6,
		    last_repayment_at = $7,
		    last_repayment_amount = $8,
		    last_updated_at = $9,
		    last_updated_by = $10
		WHERE party_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		m.PartyID,
		m.PartyType,
		m.Approved,
		m.CreditLimit,
		m.CreditDurationDays,
		m.Frozen,
		m.LastRepaymentAt,
		m.LastRepaymentAmount,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update credit profile for party "+m.PartyID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
