package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/dukapos/pos_ledger_app/internal/middleware"
	"github.com/dukapos/pos_ledger_app/internal/platform/metrics"
)

var (
	ErrInvalidPaymentAmount  = errors.New("payment amount must be positive")
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrInvoiceWrongParty     = errors.New("invoice does not belong to the given party")
	ErrInvoiceNotAllocatable = errors.New("invoice is not in an allocatable status")
)

// allocationService distributes payments across outstanding invoices,
// oldest first, posting one ledger entry per invoice application. Every
// currency unit is accounted for: allocated plus excess equals the payment.
type allocationService struct {
	invoiceRepo  portsrepo.InvoiceRepositoryFacade
	ledgerRepo   portsrepo.LedgerRepositoryWithTx
	creditRepo   portsrepo.CreditRepositoryFacade
	accountSvc   portssvc.AccountSvcFacade
	currencyCode string
	exponent     int32
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(
	invoiceRepo portsrepo.InvoiceRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryWithTx,
	creditRepo portsrepo.CreditRepositoryFacade,
	accountSvc portssvc.AccountSvcFacade,
	currencyCode string,
	exponent int32,
) portssvc.AllocationSvcFacade {
	return &allocationService{
		invoiceRepo:  invoiceRepo,
		ledgerRepo:   ledgerRepo,
		creditRepo:   creditRepo,
		accountSvc:   accountSvc,
		currencyCode: currencyCode,
		exponent:     exponent,
	}
}

var _ portssvc.AllocationSvcFacade = (*allocationService)(nil)

// partyKind resolves which side of trade credit the party sits on. Parties
// without a credit profile default to customers.
func (s *allocationService) partyKind(ctx context.Context, partyID domain.PartyID) (domain.InvoiceKind, domain.AccountCode, error) {
	profile, err := s.creditRepo.FindProfileByPartyID(ctx, partyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.SalesInvoice, domain.AccountReceivable, nil
		}
		return "", "", err
	}
	if profile.PartyType == domain.Supplier {
		return domain.PurchaseInvoice, domain.AccountPayable, nil
	}
	return domain.SalesInvoice, domain.AccountReceivable, nil
}

// settlementAccount validates the cash-side account used for the payment,
// defaulting to the main cash account.
func (s *allocationService) settlementAccount(ctx context.Context, requested string) (domain.AccountCode, error) {
	code := domain.AccountCash
	if requested != "" {
		code = domain.AccountCode(requested)
	}
	account, err := s.accountSvc.GetAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("%w: settlement account %s", ErrAccountNotFound, code)
		}
		return "", err
	}
	if !account.IsActive {
		return "", fmt.Errorf("%w: %s", ErrAccountInactive, code)
	}
	return code, nil
}

// paymentEntry builds the balanced entry for one invoice application. For
// customer invoices money moves into the settlement account and clears AR;
// for supplier invoices it clears AP out of the settlement account.
func paymentEntry(inv domain.Invoice, controlAccount, settlement domain.AccountCode, applied domain.Amount, req allocationContext, seq int, now time.Time, userID string) domain.JournalEntry {
	entryID := uuid.NewString()
	memo := fmt.Sprintf("Payment %s against %s", req.sourceID, inv.Reference)

	var lines []domain.JournalLine
	if inv.Kind == domain.PurchaseInvoice {
		lines = []domain.JournalLine{
			{LineID: uuid.NewString(), EntryID: entryID, AccountCode: controlAccount, Debit: applied, PartyID: inv.PartyID, SessionID: req.sessionID},
			{LineID: uuid.NewString(), EntryID: entryID, AccountCode: settlement, Credit: applied, SessionID: req.sessionID},
		}
	} else {
		lines = []domain.JournalLine{
			{LineID: uuid.NewString(), EntryID: entryID, AccountCode: settlement, Debit: applied, SessionID: req.sessionID},
			{LineID: uuid.NewString(), EntryID: entryID, AccountCode: controlAccount, Credit: applied, PartyID: inv.PartyID, SessionID: req.sessionID},
		}
	}

	return domain.JournalEntry{
		EntryID:    entryID,
		EntryDate:  now,
		PostedAt:   now,
		SourceType: domain.SourceAllocation,
		SourceID:   req.sourceID,
		// One key per invoice application keeps each posted entry unique
		// while the whole allocation stays keyed by the payment reference.
		IdempotencyKey: fmt.Sprintf("%s-%d-%s", req.idempotencyKey, seq, inv.InvoiceID),
		Memo:           memo,
		CurrencyCode:   req.currencyCode,
		Status:         domain.Posted,
		Lines:          lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}

// allocationContext carries the request fields shared by every entry the
// allocation posts.
type allocationContext struct {
	sourceID       string
	idempotencyKey string
	sessionID      string
	currencyCode   string
}

// AllocateBulk applies one payment across the party's unpaid invoices.
func (s *allocationService) AllocateBulk(ctx context.Context, req dto.AllocateBulkRequest, userID string) (*domain.AllocationResult, error) {
	amount, err := domain.AmountFromDecimal(req.Amount, s.exponent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	candidateIDs := make([]domain.InvoiceID, len(req.InvoiceIDs))
	for i, id := range req.InvoiceIDs {
		candidateIDs[i] = domain.InvoiceID(id)
	}

	return s.allocate(ctx, domain.PartyID(req.PartyID), amount, candidateIDs, req.CreditAccount, allocationContext{
		sourceID:       req.SourceID,
		idempotencyKey: req.IdempotencyKey,
		sessionID:      req.SessionID,
		currencyCode:   s.currencyCode,
	}, userID)
}

// AllocateSingle pays one invoice; omitted amount defaults to the invoice's
// full outstanding balance.
func (s *allocationService) AllocateSingle(ctx context.Context, req dto.AllocateSingleRequest, userID string) (*domain.AllocationResult, error) {
	invoice, err := s.invoiceRepo.FindInvoiceByID(ctx, domain.InvoiceID(req.InvoiceID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, req.InvoiceID)
		}
		return nil, err
	}

	amount := invoice.Unpaid()
	if req.Amount != nil {
		amount, err = domain.AmountFromDecimal(*req.Amount, s.exponent)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}

	return s.allocate(ctx, invoice.PartyID, amount, []domain.InvoiceID{invoice.InvoiceID}, req.CreditAccount, allocationContext{
		sourceID:       req.SourceID,
		idempotencyKey: req.IdempotencyKey,
		sessionID:      req.SessionID,
		currencyCode:   s.currencyCode,
	}, userID)
}

// allocate is the shared walk: lock the party, resolve candidates oldest
// first, apply min(remaining, unpaid) per invoice, post the matching entry,
// and report whatever could not be applied as excess.
func (s *allocationService) allocate(ctx context.Context, partyID domain.PartyID, amount domain.Amount, candidateIDs []domain.InvoiceID, creditAccount string, actx allocationContext, userID string) (*domain.AllocationResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d minor units", ErrInvalidPaymentAmount, amount)
	}

	kind, controlAccount, err := s.partyKind(ctx, partyID)
	if err != nil {
		return nil, err
	}

	settlement, err := s.settlementAccount(ctx, creditAccount)
	if err != nil {
		return nil, err
	}

	if actx.sessionID != "" {
		if err := checkSessionOpen(ctx, s.ledgerRepo, actx.sessionID); err != nil {
			return nil, err
		}
	}

	// A payment reference that already produced entries is a retried call.
	priorEntries, err := s.ledgerRepo.FindEntriesBySource(ctx, domain.SourceAllocation, actx.sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed idempotency lookup: %w", err)
	}
	if len(priorEntries) > 0 {
		return nil, fmt.Errorf("%w: payment %s already allocated", ErrDuplicatePosting, actx.sourceID)
	}

	now := time.Now().UTC()

	tx, err := s.ledgerRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.ledgerRepo.Rollback(ctx, tx)

	if err := s.ledgerRepo.AcquirePartyLock(ctx, tx, partyID); err != nil {
		return nil, fmt.Errorf("failed to lock party %s: %w", partyID, err)
	}

	var candidates []domain.Invoice
	if len(candidateIDs) > 0 {
		candidates, err = s.invoiceRepo.FindInvoicesForUpdate(ctx, tx, candidateIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate invoices: %w", err)
		}
		if len(candidates) != len(candidateIDs) {
			return nil, fmt.Errorf("%w: one or more candidate invoices", ErrInvoiceNotFound)
		}
		for _, inv := range candidates {
			if inv.PartyID != partyID {
				return nil, fmt.Errorf("%w: invoice %s", ErrInvoiceWrongParty, inv.InvoiceID)
			}
			// Draft invoices are not yet owed; paying one would move money
			// against a receivable that does not exist.
			if !inv.Allocatable() {
				return nil, fmt.Errorf("%w: invoice %s is %s", ErrInvoiceNotAllocatable, inv.InvoiceID, inv.Status)
			}
		}
	} else {
		candidates, err = s.invoiceRepo.ListUnpaidByPartyForUpdate(ctx, tx, partyID, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to load unpaid invoices: %w", err)
		}
	}

	result := &domain.AllocationResult{
		AllocationID:  uuid.NewString(),
		PartyID:       partyID,
		PaymentAmount: amount,
	}

	remaining := amount
	for i, inv := range candidates {
		if remaining == 0 {
			break
		}
		unpaid := inv.Unpaid()
		if unpaid == 0 {
			continue
		}

		applied := domain.MinAmount(remaining, unpaid)
		entry := paymentEntry(inv, controlAccount, settlement, applied, actx, i, now, userID)
		if err := s.ledgerRepo.SaveEntryInTx(ctx, tx, entry); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return nil, fmt.Errorf("%w: payment %s already allocated", ErrDuplicatePosting, actx.sourceID)
			}
			return nil, fmt.Errorf("failed to post payment entry for invoice %s: %w", inv.InvoiceID, err)
		}

		status := domain.InvoicePartiallyPaid
		if inv.Paid+applied >= inv.Total {
			status = domain.InvoicePaid
		}
		if err := s.invoiceRepo.ApplyPaymentInTx(ctx, tx, inv.InvoiceID, applied, status, userID); err != nil {
			return nil, fmt.Errorf("failed to apply payment to invoice %s: %w", inv.InvoiceID, err)
		}

		result.InvoicesPaid = append(result.InvoicesPaid, domain.InvoiceAllocation{
			InvoiceID:  inv.InvoiceID,
			Reference:  inv.Reference,
			AmountPaid: applied,
			EntryID:    entry.EntryID,
		})
		result.TotalAllocated += applied
		remaining -= applied
	}

	result.ExcessPayment = remaining

	// Remaining balance spans ALL of the party's invoices, not just the
	// candidate set, so the caller sees the post-allocation position.
	result.RemainingBalance, err = s.invoiceRepo.SumUnpaidByPartyInTx(ctx, tx, partyID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to sum remaining balance for party %s: %w", partyID, err)
	}

	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	metrics.AllocationsTotal.Inc()
	if result.ExcessPayment > 0 {
		metrics.ExcessPaymentsTotal.Inc()
	}
	logger.Info("Payment allocated",
		slog.String("party_id", string(partyID)),
		slog.String("allocation_id", result.AllocationID),
		slog.Int("invoices_paid", len(result.InvoicesPaid)),
		slog.Int64("total_allocated", int64(result.TotalAllocated)),
		slog.Int64("excess", int64(result.ExcessPayment)))
	return result, nil
}

// ListUnpaidInvoices returns the party's unpaid invoices, oldest first.
func (s *allocationService) ListUnpaidInvoices(ctx context.Context, partyID domain.PartyID, kind domain.InvoiceKind) ([]domain.Invoice, error) {
	return s.invoiceRepo.ListUnpaidByParty(ctx, partyID, kind)
}

// CreateInvoice registers an invoice as a unit of allocation.
func (s *allocationService) CreateInvoice(ctx context.Context, invoice domain.Invoice, userID string) (*domain.Invoice, error) {
	if invoice.Total <= 0 {
		return nil, fmt.Errorf("%w: invoice total must be positive", apperrors.ErrValidation)
	}
	if invoice.InvoiceID == "" {
		invoice.InvoiceID = domain.InvoiceID(uuid.NewString())
	}
	if invoice.Status == "" {
		invoice.Status = domain.InvoiceConfirmed
	}
	if invoice.IssuedAt.IsZero() {
		invoice.IssuedAt = time.Now().UTC()
	}

	now := time.Now().UTC()
	invoice.AuditFields = domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	if err := s.invoiceRepo.SaveInvoice(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	return &invoice, nil
}
