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

type PgxInvoiceRepository struct {
	BaseRepository
}

// newPgxInvoiceRepository creates a new repository for invoices.
func newPgxInvoiceRepository(pool *pgxpool.Pool) portsrepo.InvoiceRepositoryFacade {
	return &PgxInvoiceRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxInvoiceRepository implements portsrepo.InvoiceRepositoryFacade
var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `
	invoice_id, party_id, kind, reference, total, paid, status, issued_at,
	created_at, created_by, last_updated_at, last_updated_by`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID,
		&m.PartyID,
		&m.Kind,
		&m.Reference,
		&m.Total,
		&m.Paid,
		&m.Status,
		&m.IssuedAt,
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

func collectInvoices(rows pgx.Rows) ([]domain.Invoice, error) {
	defer rows.Close()

	modelInvoices := []models.Invoice{}
	for rows.Next() {
		m, err := scanInvoice(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan invoice row", err)
		}
		modelInvoices = append(modelInvoices, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating invoice rows", err)
	}
	return mapping.ToDomainInvoiceSlice(modelInvoices), nil
}

// FindInvoiceByID retrieves a specific invoice.
func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID domain.InvoiceID) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1;`

	m, err := scanInvoice(r.Pool.QueryRow(ctx, query, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find invoice "+string(invoiceID), err)
	}

	invoice := mapping.ToDomainInvoice(*m)
	return &invoice, nil
}

// unpaidFilter selects invoices still carrying a balance. Draft invoices are
// not allocation candidates.
const unpaidFilter = `party_id = $1 AND kind = $2 AND status IN ('CONFIRMED', 'PARTIALLY_PAID') AND paid < total`

// ListUnpaidByParty retrieves the party's unpaid and partially-paid invoices
// of the given kind, oldest-first by issue date.
func (r *PgxInvoiceRepository) ListUnpaidByParty(ctx context.Context, partyID domain.PartyID, kind domain.InvoiceKind) ([]domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE ` + unpaidFilter + `
		ORDER BY issued_at, invoice_id;
	`
	rows, err := r.Pool.Query(ctx, query, partyID, kind)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unpaid invoices for party "+string(partyID), err)
	}
	return collectInvoices(rows)
}

// FindInvoicesForUpdate selects invoices and row-locks them within the
// transaction, preserving oldest-first order.
func (r *PgxInvoiceRepository) FindInvoicesForUpdate(ctx context.Context, tx pgx.Tx, invoiceIDs []domain.InvoiceID) ([]domain.Invoice, error) {
	if len(invoiceIDs) == 0 {
		return []domain.Invoice{}, nil
	}

	idStrs := make([]string, len(invoiceIDs))
	for i, id := range invoiceIDs {
		idStrs[i] = string(id)
	}

	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE invoice_id = ANY($1)
		ORDER BY issued_at, invoice_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, idStrs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock invoices for update", err)
	}
	return collectInvoices(rows)
}

// ListUnpaidByPartyForUpdate selects and row-locks all unpaid invoices for
// the party, oldest-first.
func (r *PgxInvoiceRepository) ListUnpaidByPartyForUpdate(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, kind domain.InvoiceKind) ([]domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE ` + unpaidFilter + `
		ORDER BY issued_at, invoice_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, query, partyID, kind)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock unpaid invoices for party "+string(partyID), err)
	}
	return collectInvoices(rows)
}

// ApplyPaymentInTx increments an invoice's paid amount and status inside the
// transaction.
func (r *PgxInvoiceRepository) ApplyPaymentInTx(ctx context.Context, tx pgx.Tx, invoiceID domain.InvoiceID, amount domain.Amount, status domain.InvoiceStatus, updatedBy string) error {
	query := `
		UPDATE invoices
		SET paid = paid + $2,
		    status = $3,
		    last_updated_at = NOW(),
		    last_updated_by = $4
		WHERE invoice_id = $1;
	`
	cmdTag, err := tx.Exec(ctx, query, invoiceID, int64(amount), status, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to apply payment to invoice "+string(invoiceID), err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SumUnpaidByPartyInTx returns the unpaid total across ALL of the party's
// invoices of the given kind, as seen inside the transaction.
func (r *PgxInvoiceRepository) SumUnpaidByPartyInTx(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, kind domain.InvoiceKind) (domain.Amount, error) {
	query := `
		SELECT COALESCE(SUM(total - paid), 0)
		FROM invoices
		WHERE ` + unpaidFilter + `;
	`
	var unpaid int64
	if err := tx.QueryRow(ctx, query, partyID, kind).Scan(&unpaid); err != nil {
		return 0, apperrors.NewAppError(500, "failed to sum unpaid invoices for party "+string(partyID), err)
	}
	return domain.Amount(unpaid), nil
}

// SaveInvoice persists a new invoice.
func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	m := mapping.ToModelInvoice(invoice)
	query := `
		INSERT INTO invoices (
			invoice_id, party_id, kind, reference, total, paid, status, issued_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.InvoiceID,
		m.PartyID,
		m.Kind,
		m.Reference,
		m.Total,
		m.Paid,
		m.Status,
		m.IssuedAt,
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
		return apperrors.NewAppError(500, "failed to insert invoice "+m.InvoiceID, err)
	}
	return nil
}
