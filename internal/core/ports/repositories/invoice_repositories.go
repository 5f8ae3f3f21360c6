package repositories

import (
	"context"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// InvoiceReader defines read operations for invoices.
type InvoiceReader interface {
	// FindInvoiceByID retrieves a specific invoice.
	FindInvoiceByID(ctx context.Context, invoiceID domain.InvoiceID) (*domain.Invoice, error)

	// ListUnpaidByParty retrieves the party's unpaid and partially-paid
	// invoices of the given kind, ordered oldest-first by issue date.
	ListUnpaidByParty(ctx context.Context, partyID domain.PartyID, kind domain.InvoiceKind) ([]domain.Invoice, error)
}

// InvoiceAllocationSupport defines the operations the allocator runs inside
// its party-locked transaction.
type InvoiceAllocationSupport interface {
	// FindInvoicesForUpdate selects invoices and row-locks them within the
	// transaction, preserving oldest-first order.
	FindInvoicesForUpdate(ctx context.Context, tx pgx.Tx, invoiceIDs []domain.InvoiceID) ([]domain.Invoice, error)

	// ListUnpaidByPartyForUpdate selects and row-locks all unpaid invoices
	// for the party, oldest-first.
	ListUnpaidByPartyForUpdate(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, kind domain.InvoiceKind) ([]domain.Invoice, error)

	// ApplyPaymentInTx increments an invoice's paid amount and status inside
	// the transaction.
	ApplyPaymentInTx(ctx context.Context, tx pgx.Tx, invoiceID domain.InvoiceID, amount domain.Amount, status domain.InvoiceStatus, updatedBy string) error

	// SumUnpaidByPartyInTx returns the unpaid total across ALL of the
	// party's invoices of the given kind, as seen inside the transaction.
	SumUnpaidByPartyInTx(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, kind domain.InvoiceKind) (domain.Amount, error)
}

// InvoiceWriter defines write operations for invoices outside allocation.
type InvoiceWriter interface {
	// SaveInvoice persists a new invoice.
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error
}

// InvoiceRepositoryFacade combines all invoice repository interfaces.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
	InvoiceAllocationSupport
}
