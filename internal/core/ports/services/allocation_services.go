package services

import (
	"context"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/dto"
)

// AllocationSvcFacade distributes payments across outstanding invoices and
// posts the matching ledger entries.
type AllocationSvcFacade interface {
	// AllocateBulk applies one payment across the party's unpaid invoices,
	// oldest first. Excess payment is reported, never an error.
	AllocateBulk(ctx context.Context, req dto.AllocateBulkRequest, userID string) (*domain.AllocationResult, error)

	// AllocateSingle pays one invoice; the degenerate bulk case.
	AllocateSingle(ctx context.Context, req dto.AllocateSingleRequest, userID string) (*domain.AllocationResult, error)

	// ListUnpaidInvoices returns the party's unpaid invoices, oldest first.
	ListUnpaidInvoices(ctx context.Context, partyID domain.PartyID, kind domain.InvoiceKind) ([]domain.Invoice, error)

	// CreateInvoice registers an invoice as a unit of allocation. Its wider
	// lifecycle is owned by order management.
	CreateInvoice(ctx context.Context, invoice domain.Invoice, userID string) (*domain.Invoice, error)
}
