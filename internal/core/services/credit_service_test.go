package services_test

import (
	"context"
	"testing"

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

type CreditServiceTestSuite struct {
	suite.Suite
	mockCreditRepo *MockCreditRepository
	mockLedgerRepo *MockLedgerRepository
	service        portssvc.CreditSvcFacade

	partyID domain.PartyID
	userID  string
}

func (s *CreditServiceTestSuite) SetupTest() {
	s.mockCreditRepo = new(MockCreditRepository)
	s.mockLedgerRepo = new(MockLedgerRepository)
	s.service = services.NewCreditService(s.mockCreditRepo, s.mockLedgerRepo, "KES", 2)

	s.partyID = domain.PartyID(uuid.NewString())
	s.userID = uuid.NewString()
}

func (s *CreditServiceTestSuite) approvedProfile(limitMinor int64) *domain.CreditProfile {
	return &domain.CreditProfile{
		PartyID:     s.partyID,
		PartyType:   domain.Customer,
		Approved:    true,
		CreditLimit: domain.Amount(limitMinor),
	}
}

func (s *CreditServiceTestSuite) TestSummary_DerivesOutstandingFromLedger() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("PartyOutstanding", ctx, s.partyID, domain.AccountReceivable).Return(domain.Amount(120000), nil).Once()

	summary, err := s.service.Summary(ctx, s.partyID)

	s.Require().NoError(err)
	s.Equal(domain.Amount(120000), summary.Outstanding)
	s.Equal(domain.Amount(380000), summary.Available)
}

func (s *CreditServiceTestSuite) TestSummary_NegativeOutstandingRaisesAvailable() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)

	// A repayment overshoot leaves the party holding a credit balance, so
	// available credit rises above the limit.
	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("PartyOutstanding", ctx, s.partyID, domain.AccountReceivable).Return(domain.Amount(-20000), nil).Once()

	summary, err := s.service.Summary(ctx, s.partyID)

	s.Require().NoError(err)
	s.Equal(domain.Amount(-20000), summary.Outstanding)
	s.Equal(domain.Amount(520000), summary.Available)
}

func (s *CreditServiceTestSuite) TestSummary_SupplierUsesPayableAccount() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)
	profile.PartyType = domain.Supplier

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("PartyOutstanding", ctx, s.partyID, domain.AccountPayable).Return(domain.Amount(0), nil).Once()

	_, err := s.service.Summary(ctx, s.partyID)

	s.Require().NoError(err)
	s.mockLedgerRepo.AssertExpectations(s.T())
}

func (s *CreditServiceTestSuite) TestValidate_NoProfileFailsClosed() {
	ctx := context.Background()

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(nil, apperrors.ErrNotFound).Once()

	validation, err := s.service.Validate(ctx, s.partyID, 10000)

	s.Require().NoError(err)
	s.False(validation.IsValid)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "PartyOutstanding", mock.Anything, mock.Anything, mock.Anything)
}

func (s *CreditServiceTestSuite) TestValidate_FrozenFailsClosed() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)
	profile.Frozen = true

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()

	validation, err := s.service.Validate(ctx, s.partyID, 10000)

	s.Require().NoError(err)
	s.False(validation.IsValid)
}

func (s *CreditServiceTestSuite) TestValidate_WouldExceedLimit() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("PartyOutstanding", ctx, s.partyID, domain.AccountReceivable).Return(domain.Amount(450000), nil).Once()

	validation, err := s.service.Validate(ctx, s.partyID, 60000)

	s.Require().NoError(err)
	s.False(validation.IsValid)
	s.True(validation.WouldExceedLimit)
}

func (s *CreditServiceTestSuite) TestValidate_ExactLimitAllowed() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("PartyOutstanding", ctx, s.partyID, domain.AccountReceivable).Return(domain.Amount(450000), nil).Once()

	validation, err := s.service.Validate(ctx, s.partyID, 50000)

	s.Require().NoError(err)
	s.True(validation.IsValid)
}

func (s *CreditServiceTestSuite) TestValidate_NonPositiveAmountRejected() {
	ctx := context.Background()

	_, err := s.service.Validate(ctx, s.partyID, 0)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrInvalidCreditAmount)
}

func (s *CreditServiceTestSuite) TestApprove_CreatesProfileOnFirstApproval() {
	ctx := context.Background()
	limit := decimal.NewFromInt(5000)
	req := dto.ApproveCreditRequest{PartyType: "CUSTOMER", Approved: true, CreditLimit: &limit}

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(nil, apperrors.ErrNotFound).Once()
	s.mockCreditRepo.On("SaveProfile", ctx, mock.AnythingOfType("domain.CreditProfile")).Return(nil).Once()

	profile, err := s.service.Approve(ctx, s.partyID, req, s.userID)

	s.Require().NoError(err)
	s.True(profile.Approved)
	s.Equal(domain.Amount(500000), profile.CreditLimit)
	s.Equal(domain.Customer, profile.PartyType)
	s.mockCreditRepo.AssertExpectations(s.T())
}

func (s *CreditServiceTestSuite) TestRecordCreditSale_PostsUnderPartyLock() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)
	req := dto.RecordCreditSaleRequest{
		PartyID:        string(s.partyID),
		Amount:         decimal.NewFromInt(1000),
		SourceID:       "order-3001",
		IdempotencyKey: "k-3001",
	}

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(nil, apperrors.ErrNotFound).Once()
	s.mockLedgerRepo.On("Begin", ctx).Return(nil, nil).Once()
	s.mockLedgerRepo.On("AcquirePartyLock", ctx, nil, s.partyID).Return(nil).Once()
	s.mockLedgerRepo.On("PartyOutstandingInTx", ctx, nil, s.partyID, domain.AccountReceivable).Return(domain.Amount(0), nil).Once()
	s.mockLedgerRepo.On("SaveEntryInTx", ctx, nil, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Once()
	s.mockLedgerRepo.On("Commit", ctx, nil).Return(nil).Once()
	s.mockLedgerRepo.On("Rollback", ctx, nil).Return(nil).Once()

	entry, err := s.service.RecordCreditSale(ctx, req, s.userID)

	s.Require().NoError(err)
	s.Require().NotNil(entry)
	s.Equal(domain.SourceSale, entry.SourceType)
	s.Len(entry.Lines, 2)
	s.Equal(domain.AccountReceivable, entry.Lines[0].AccountCode)
	s.Equal(domain.Amount(100000), entry.Lines[0].Debit)
	s.Equal(s.partyID, entry.Lines[0].PartyID)
	s.Equal(domain.AccountSales, entry.Lines[1].AccountCode)
	s.Equal(domain.Amount(100000), entry.Lines[1].Credit)

	s.mockLedgerRepo.AssertExpectations(s.T())
}

func (s *CreditServiceTestSuite) TestRecordCreditSale_LimitCheckedUnderLock() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)
	req := dto.RecordCreditSaleRequest{
		PartyID:        string(s.partyID),
		Amount:         decimal.NewFromInt(1000),
		SourceID:       "order-3002",
		IdempotencyKey: "k-3002",
	}

	// The pre-lock check passed elsewhere, but the balance re-derived under
	// the advisory lock no longer fits.
	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(nil, apperrors.ErrNotFound).Once()
	s.mockLedgerRepo.On("Begin", ctx).Return(nil, nil).Once()
	s.mockLedgerRepo.On("AcquirePartyLock", ctx, nil, s.partyID).Return(nil).Once()
	s.mockLedgerRepo.On("PartyOutstandingInTx", ctx, nil, s.partyID, domain.AccountReceivable).Return(domain.Amount(450000), nil).Once()
	s.mockLedgerRepo.On("Rollback", ctx, nil).Return(nil).Once()

	_, err := s.service.RecordCreditSale(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrCreditLimitExceeded)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SaveEntryInTx", mock.Anything, mock.Anything, mock.Anything)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Commit", mock.Anything, mock.Anything)
}

func (s *CreditServiceTestSuite) TestRecordCreditSale_FrozenRefused() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)
	profile.Frozen = true
	req := dto.RecordCreditSaleRequest{
		PartyID:        string(s.partyID),
		Amount:         decimal.NewFromInt(1000),
		SourceID:       "order-3003",
		IdempotencyKey: "k-3003",
	}

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()

	_, err := s.service.RecordCreditSale(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrCreditFrozen)
}

func (s *CreditServiceTestSuite) TestRecordCreditSale_ClosedSessionRefused() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)
	req := dto.RecordCreditSaleRequest{
		PartyID:        string(s.partyID),
		Amount:         decimal.NewFromInt(1000),
		SourceID:       "order-3005",
		IdempotencyKey: "k-3005",
		SessionID:      "sess-201",
	}

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("SessionStatus", ctx, "sess-201").Return(domain.SessionClosed, nil).Once()

	_, err := s.service.RecordCreditSale(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrSessionNotOpen)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Begin", mock.Anything)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SaveEntryInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (s *CreditServiceTestSuite) TestRecordCreditSale_DuplicateReturnsPrior() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)
	prior := &domain.JournalEntry{EntryID: uuid.NewString()}
	req := dto.RecordCreditSaleRequest{
		PartyID:        string(s.partyID),
		Amount:         decimal.NewFromInt(1000),
		SourceID:       "order-3004",
		IdempotencyKey: "k-3004",
	}

	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(prior, nil).Once()

	entry, err := s.service.RecordCreditSale(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrDuplicatePosting)
	s.Require().NotNil(entry)
	s.Equal(prior.EntryID, entry.EntryID)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *CreditServiceTestSuite) TestRecordCreditSale_DuplicateRaceLostFetchesWinner() {
	ctx := context.Background()
	profile := s.approvedProfile(500000)
	prior := &domain.JournalEntry{EntryID: uuid.NewString()}
	req := dto.RecordCreditSaleRequest{
		PartyID:        string(s.partyID),
		Amount:         decimal.NewFromInt(1000),
		SourceID:       "order-3006",
		IdempotencyKey: "k-3006",
	}

	// The pre-lock check sees nothing, but a concurrent retry commits first
	// and the unique index refuses the insert.
	s.mockCreditRepo.On("FindProfileByPartyID", ctx, s.partyID).Return(profile, nil).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(nil, apperrors.ErrNotFound).Once()
	s.mockLedgerRepo.On("Begin", ctx).Return(nil, nil).Once()
	s.mockLedgerRepo.On("AcquirePartyLock", ctx, nil, s.partyID).Return(nil).Once()
	s.mockLedgerRepo.On("PartyOutstandingInTx", ctx, nil, s.partyID, domain.AccountReceivable).Return(domain.Amount(0), nil).Once()
	s.mockLedgerRepo.On("SaveEntryInTx", ctx, nil, mock.AnythingOfType("domain.JournalEntry")).Return(apperrors.ErrDuplicate).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(prior, nil).Once()
	s.mockLedgerRepo.On("Rollback", ctx, nil).Return(nil).Once()

	entry, err := s.service.RecordCreditSale(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrDuplicatePosting)
	s.Require().NotNil(entry)
	s.Equal(prior.EntryID, entry.EntryID)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Commit", mock.Anything, mock.Anything)
	s.mockLedgerRepo.AssertExpectations(s.T())
}

func TestCreditServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CreditServiceTestSuite))
}
