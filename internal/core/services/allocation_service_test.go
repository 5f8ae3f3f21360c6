package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/core/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AllocationServiceTestSuite struct {
	suite.Suite
	mockInvoiceRepo *MockInvoiceRepository
	mockLedgerRepo  *MockLedgerRepository
	mockCreditRepo  *MockCreditRepository
	mockAccountSvc  *MockAccountService
	service         portssvc.AllocationSvcFacade

	partyID     domain.PartyID
	userID      string
	cashAccount domain.Account
}

func (s *AllocationServiceTestSuite) SetupTest() {
	s.mockInvoiceRepo = new(MockInvoiceRepository)
	s.mockLedgerRepo = new(MockLedgerRepository)
	s.mockCreditRepo = new(MockCreditRepository)
	s.mockAccountSvc = new(MockAccountService)
	s.service = services.NewAllocationService(s.mockInvoiceRepo, s.mockLedgerRepo, s.mockCreditRepo, s.mockAccountSvc, "KES", 2)

	s.partyID = domain.PartyID(uuid.NewString())
	s.userID = uuid.NewString()
	s.cashAccount = domain.Account{
		Code:         domain.AccountCash,
		Name:         "Cash on Hand",
		AccountType:  domain.Asset,
		CurrencyCode: "KES",
		IsActive:     true,
	}
}

// unpaidInvoices is the standard fixture: two confirmed invoices of 500.00
// and 300.00, oldest first.
func (s *AllocationServiceTestSuite) unpaidInvoices() []domain.Invoice {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []domain.Invoice{
		{
			InvoiceID: "inv-001",
			PartyID:   s.partyID,
			Kind:      domain.SalesInvoice,
			Reference: "INV-001",
			Total:     50000,
			Paid:      0,
			Status:    domain.InvoiceConfirmed,
			IssuedAt:  base,
		},
		{
			InvoiceID: "inv-002",
			PartyID:   s.partyID,
			Kind:      domain.SalesInvoice,
			Reference: "INV-002",
			Total:     30000,
			Paid:      0,
			Status:    domain.InvoiceConfirmed,
			IssuedAt:  base.Add(24 * time.Hour),
		},
	}
}

// expectAllocationScaffolding wires the calls every successful allocation
// makes around the per-invoice walk.
func (s *AllocationServiceTestSuite) expectAllocationScaffolding(ctx context.Context, sourceID string, remaining domain.Amount) {
	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(nil, apperrors.ErrNotFound).Once()
	s.mockAccountSvc.On("GetAccountByCode", ctx, domain.AccountCash).Return(&s.cashAccount, nil).Once()
	s.mockLedgerRepo.On("FindEntriesBySource", ctx, domain.SourceAllocation, sourceID).Return([]domain.JournalEntry{}, nil).Once()
	s.mockLedgerRepo.On("Begin", ctx).Return(nil, nil).Once()
	s.mockLedgerRepo.On("AcquirePartyLock", ctx, nil, s.partyID).Return(nil).Once()
	s.mockInvoiceRepo.On("SumUnpaidByPartyInTx", ctx, nil, s.partyID, domain.SalesInvoice).Return(remaining, nil).Once()
	s.mockLedgerRepo.On("Commit", ctx, nil).Return(nil).Once()
	s.mockLedgerRepo.On("Rollback", ctx, nil).Return(nil).Once()
}

func (s *AllocationServiceTestSuite) bulkRequest(amount int64, sourceID string) dto.AllocateBulkRequest {
	return dto.AllocateBulkRequest{
		PartyID:        string(s.partyID),
		Amount:         decimal.NewFromInt(amount),
		SourceID:       sourceID,
		IdempotencyKey: "k-" + sourceID,
	}
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_ExactPaymentClearsBoth() {
	ctx := context.Background()
	req := s.bulkRequest(800, "pay-800")

	s.expectAllocationScaffolding(ctx, req.SourceID, 0)
	s.mockInvoiceRepo.On("ListUnpaidByPartyForUpdate", ctx, nil, s.partyID, domain.SalesInvoice).Return(s.unpaidInvoices(), nil).Once()
	s.mockLedgerRepo.On("SaveEntryInTx", ctx, nil, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Twice()
	s.mockInvoiceRepo.On("ApplyPaymentInTx", ctx, nil, domain.InvoiceID("inv-001"), domain.Amount(50000), domain.InvoicePaid, s.userID).Return(nil).Once()
	s.mockInvoiceRepo.On("ApplyPaymentInTx", ctx, nil, domain.InvoiceID("inv-002"), domain.Amount(30000), domain.InvoicePaid, s.userID).Return(nil).Once()

	result, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().NoError(err)
	s.Equal(domain.Amount(80000), result.PaymentAmount)
	s.Equal(domain.Amount(80000), result.TotalAllocated)
	s.Equal(domain.Amount(0), result.ExcessPayment)
	s.Require().Len(result.InvoicesPaid, 2)

	// Oldest invoice first.
	s.Equal(domain.InvoiceID("inv-001"), result.InvoicesPaid[0].InvoiceID)
	s.Equal(domain.Amount(50000), result.InvoicesPaid[0].AmountPaid)
	s.Equal(domain.InvoiceID("inv-002"), result.InvoicesPaid[1].InvoiceID)
	s.Equal(domain.Amount(30000), result.InvoicesPaid[1].AmountPaid)

	// Conservation: allocated plus excess equals the payment.
	s.Equal(result.PaymentAmount, result.TotalAllocated+result.ExcessPayment)

	s.mockInvoiceRepo.AssertExpectations(s.T())
	s.mockLedgerRepo.AssertExpectations(s.T())
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_OverpaymentReportsExcess() {
	ctx := context.Background()
	req := s.bulkRequest(1000, "pay-1000")

	s.expectAllocationScaffolding(ctx, req.SourceID, 0)
	s.mockInvoiceRepo.On("ListUnpaidByPartyForUpdate", ctx, nil, s.partyID, domain.SalesInvoice).Return(s.unpaidInvoices(), nil).Once()
	s.mockLedgerRepo.On("SaveEntryInTx", ctx, nil, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Twice()
	s.mockInvoiceRepo.On("ApplyPaymentInTx", ctx, nil, domain.InvoiceID("inv-001"), domain.Amount(50000), domain.InvoicePaid, s.userID).Return(nil).Once()
	s.mockInvoiceRepo.On("ApplyPaymentInTx", ctx, nil, domain.InvoiceID("inv-002"), domain.Amount(30000), domain.InvoicePaid, s.userID).Return(nil).Once()

	result, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().NoError(err)
	s.Equal(domain.Amount(80000), result.TotalAllocated)
	s.Equal(domain.Amount(20000), result.ExcessPayment)
	s.Equal(result.PaymentAmount, result.TotalAllocated+result.ExcessPayment)
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_PartialPaymentStopsAtFirstInvoice() {
	ctx := context.Background()
	req := s.bulkRequest(400, "pay-400")

	s.expectAllocationScaffolding(ctx, req.SourceID, 40000)
	s.mockInvoiceRepo.On("ListUnpaidByPartyForUpdate", ctx, nil, s.partyID, domain.SalesInvoice).Return(s.unpaidInvoices(), nil).Once()
	s.mockLedgerRepo.On("SaveEntryInTx", ctx, nil, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Once()
	s.mockInvoiceRepo.On("ApplyPaymentInTx", ctx, nil, domain.InvoiceID("inv-001"), domain.Amount(40000), domain.InvoicePartiallyPaid, s.userID).Return(nil).Once()

	result, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().NoError(err)
	s.Require().Len(result.InvoicesPaid, 1)
	s.Equal(domain.InvoiceID("inv-001"), result.InvoicesPaid[0].InvoiceID)
	s.Equal(domain.Amount(40000), result.TotalAllocated)
	s.Equal(domain.Amount(0), result.ExcessPayment)
	s.Equal(domain.Amount(40000), result.RemainingBalance)

	// The second invoice is untouched.
	s.mockInvoiceRepo.AssertNotCalled(s.T(), "ApplyPaymentInTx", mock.Anything, mock.Anything, domain.InvoiceID("inv-002"), mock.Anything, mock.Anything, mock.Anything)
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_NoUnpaidInvoicesAllExcess() {
	ctx := context.Background()
	req := s.bulkRequest(250, "pay-250")

	s.expectAllocationScaffolding(ctx, req.SourceID, 0)
	s.mockInvoiceRepo.On("ListUnpaidByPartyForUpdate", ctx, nil, s.partyID, domain.SalesInvoice).Return([]domain.Invoice{}, nil).Once()

	result, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().NoError(err)
	s.Empty(result.InvoicesPaid)
	s.Equal(domain.Amount(0), result.TotalAllocated)
	s.Equal(domain.Amount(25000), result.ExcessPayment)
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_DuplicatePaymentRefused() {
	ctx := context.Background()
	req := s.bulkRequest(800, "pay-dup")

	prior := []domain.JournalEntry{{EntryID: uuid.NewString()}}
	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(nil, apperrors.ErrNotFound).Once()
	s.mockAccountSvc.On("GetAccountByCode", ctx, domain.AccountCash).Return(&s.cashAccount, nil).Once()
	s.mockLedgerRepo.On("FindEntriesBySource", ctx, domain.SourceAllocation, req.SourceID).Return(prior, nil).Once()

	_, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrDuplicatePosting)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_WrongPartyInvoiceRefused() {
	ctx := context.Background()
	req := s.bulkRequest(800, "pay-wp")
	req.InvoiceIDs = []string{"inv-foreign"}

	foreign := []domain.Invoice{{
		InvoiceID: "inv-foreign",
		PartyID:   domain.PartyID(uuid.NewString()),
		Kind:      domain.SalesInvoice,
		Total:     10000,
		Status:    domain.InvoiceConfirmed,
	}}

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(nil, apperrors.ErrNotFound).Once()
	s.mockAccountSvc.On("GetAccountByCode", ctx, domain.AccountCash).Return(&s.cashAccount, nil).Once()
	s.mockLedgerRepo.On("FindEntriesBySource", ctx, domain.SourceAllocation, req.SourceID).Return([]domain.JournalEntry{}, nil).Once()
	s.mockLedgerRepo.On("Begin", ctx).Return(nil, nil).Once()
	s.mockLedgerRepo.On("AcquirePartyLock", ctx, nil, s.partyID).Return(nil).Once()
	s.mockInvoiceRepo.On("FindInvoicesForUpdate", ctx, nil, []domain.InvoiceID{"inv-foreign"}).Return(foreign, nil).Once()
	s.mockLedgerRepo.On("Rollback", ctx, nil).Return(nil).Once()

	_, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrInvoiceWrongParty)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Commit", mock.Anything, mock.Anything)
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_ClosedSessionRefused() {
	ctx := context.Background()
	req := s.bulkRequest(800, "pay-cs")
	req.SessionID = "sess-301"

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(nil, apperrors.ErrNotFound).Once()
	s.mockAccountSvc.On("GetAccountByCode", ctx, domain.AccountCash).Return(&s.cashAccount, nil).Once()
	s.mockLedgerRepo.On("SessionStatus", ctx, "sess-301").Return(domain.SessionClosed, nil).Once()

	_, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrSessionNotOpen)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_DraftCandidateRefused() {
	ctx := context.Background()
	req := s.bulkRequest(800, "pay-draft")
	req.InvoiceIDs = []string{"inv-draft"}

	draft := []domain.Invoice{{
		InvoiceID: "inv-draft",
		PartyID:   s.partyID,
		Kind:      domain.SalesInvoice,
		Total:     10000,
		Status:    domain.InvoiceDraft,
	}}

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(nil, apperrors.ErrNotFound).Once()
	s.mockAccountSvc.On("GetAccountByCode", ctx, domain.AccountCash).Return(&s.cashAccount, nil).Once()
	s.mockLedgerRepo.On("FindEntriesBySource", ctx, domain.SourceAllocation, req.SourceID).Return([]domain.JournalEntry{}, nil).Once()
	s.mockLedgerRepo.On("Begin", ctx).Return(nil, nil).Once()
	s.mockLedgerRepo.On("AcquirePartyLock", ctx, nil, s.partyID).Return(nil).Once()
	s.mockInvoiceRepo.On("FindInvoicesForUpdate", ctx, nil, []domain.InvoiceID{"inv-draft"}).Return(draft, nil).Once()
	s.mockLedgerRepo.On("Rollback", ctx, nil).Return(nil).Once()

	_, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrInvoiceNotAllocatable)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SaveEntryInTx", mock.Anything, mock.Anything, mock.Anything)
	s.mockInvoiceRepo.AssertNotCalled(s.T(), "ApplyPaymentInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Commit", mock.Anything, mock.Anything)
}

func (s *AllocationServiceTestSuite) TestAllocateBulk_NonPositiveAmountRejected() {
	ctx := context.Background()
	req := s.bulkRequest(0, "pay-zero")

	_, err := s.service.AllocateBulk(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrInvalidPaymentAmount)
}

func (s *AllocationServiceTestSuite) TestAllocateSingle_DefaultsToFullOutstanding() {
	ctx := context.Background()
	invoice := s.unpaidInvoices()[0]
	invoice.Paid = 10000
	req := dto.AllocateSingleRequest{
		InvoiceID:      string(invoice.InvoiceID),
		SourceID:       "pay-single",
		IdempotencyKey: "k-pay-single",
	}

	s.mockInvoiceRepo.On("FindInvoiceByID", ctx, invoice.InvoiceID).Return(&invoice, nil).Once()
	s.expectAllocationScaffolding(ctx, req.SourceID, 30000)
	s.mockInvoiceRepo.On("FindInvoicesForUpdate", ctx, nil, []domain.InvoiceID{invoice.InvoiceID}).Return([]domain.Invoice{invoice}, nil).Once()
	s.mockLedgerRepo.On("SaveEntryInTx", ctx, nil, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Once()
	s.mockInvoiceRepo.On("ApplyPaymentInTx", ctx, nil, invoice.InvoiceID, domain.Amount(40000), domain.InvoicePaid, s.userID).Return(nil).Once()

	result, err := s.service.AllocateSingle(ctx, req, s.userID)

	s.Require().NoError(err)
	s.Equal(domain.Amount(40000), result.TotalAllocated)
	s.Equal(domain.Amount(0), result.ExcessPayment)
}

func (s *AllocationServiceTestSuite) TestAllocateSingle_UnknownInvoice() {
	ctx := context.Background()
	req := dto.AllocateSingleRequest{
		InvoiceID:      "inv-missing",
		SourceID:       "pay-missing",
		IdempotencyKey: "k-pay-missing",
	}

	s.mockInvoiceRepo.On("FindInvoiceByID", ctx, domain.InvoiceID("inv-missing")).Return(nil, apperrors.ErrNotFound).Once()

	_, err := s.service.AllocateSingle(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrInvoiceNotFound)
}

func (s *AllocationServiceTestSuite) TestCreateInvoice_DefaultsApplied() {
	ctx := context.Background()
	invoice := domain.Invoice{
		PartyID:   s.partyID,
		Kind:      domain.SalesInvoice,
		Reference: "INV-100",
		Total:     12500,
	}

	s.mockInvoiceRepo.On("SaveInvoice", ctx, mock.AnythingOfType("domain.Invoice")).Return(nil).Once()

	created, err := s.service.CreateInvoice(ctx, invoice, s.userID)

	s.Require().NoError(err)
	s.NotEmpty(created.InvoiceID)
	s.Equal(domain.InvoiceConfirmed, created.Status)
	s.False(created.IssuedAt.IsZero())
}

func (s *AllocationServiceTestSuite) TestCreateInvoice_NonPositiveTotalRejected() {
	ctx := context.Background()

	_, err := s.service.CreateInvoice(ctx, domain.Invoice{PartyID: s.partyID, Total: 0}, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func TestAllocationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AllocationServiceTestSuite))
}
