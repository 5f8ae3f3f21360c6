package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/core/services"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo *MockLedgerRepository
	mockAccountSvc *MockAccountService
	service        portssvc.LedgerSvcFacade

	userID       string
	cashAccount  domain.Account
	salesAccount domain.Account
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.mockLedgerRepo = new(MockLedgerRepository)
	s.mockAccountSvc = new(MockAccountService)
	s.service = services.NewLedgerService(s.mockLedgerRepo, s.mockAccountSvc, "KES", 2)

	s.userID = uuid.NewString()
	s.cashAccount = domain.Account{
		Code:         domain.AccountCash,
		Name:         "Cash on Hand",
		AccountType:  domain.Asset,
		CurrencyCode: "KES",
		IsActive:     true,
	}
	s.salesAccount = domain.Account{
		Code:         domain.AccountSales,
		Name:         "Sales Revenue",
		AccountType:  domain.Income,
		CurrencyCode: "KES",
		IsActive:     true,
	}
}

func (s *LedgerServiceTestSuite) accountsMap() map[domain.AccountCode]domain.Account {
	return map[domain.AccountCode]domain.Account{
		s.cashAccount.Code:  s.cashAccount,
		s.salesAccount.Code: s.salesAccount,
	}
}

func (s *LedgerServiceTestSuite) postRequest() dto.PostEntryRequest {
	return dto.PostEntryRequest{
		EntryDate:      time.Now().UTC(),
		SourceType:     string(domain.SourceSale),
		SourceID:       "order-1001",
		IdempotencyKey: "k-1001",
		Memo:           "Cash sale",
		Lines: []dto.EntryLineRequest{
			{AccountCode: string(domain.AccountCash), Debit: decimal.NewFromInt(100)},
			{AccountCode: string(domain.AccountSales), Credit: decimal.NewFromInt(100)},
		},
	}
}

func (s *LedgerServiceTestSuite) TestPostEntry_Success() {
	ctx := context.Background()
	req := s.postRequest()

	s.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(s.accountsMap(), nil).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(nil, apperrors.ErrNotFound).Once()
	s.mockLedgerRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Once()

	entry, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().NoError(err)
	s.Require().NotNil(entry)
	s.NotEmpty(entry.EntryID)
	s.Equal(domain.Posted, entry.Status)
	s.Equal("KES", entry.CurrencyCode)
	s.Len(entry.Lines, 2)
	s.Equal(domain.Amount(10000), entry.Lines[0].Debit)
	s.Equal(domain.Amount(10000), entry.Lines[1].Credit)
	s.Equal(s.userID, entry.CreatedBy)

	s.mockLedgerRepo.AssertExpectations(s.T())
	s.mockAccountSvc.AssertExpectations(s.T())
}

func (s *LedgerServiceTestSuite) TestPostEntry_Unbalanced() {
	ctx := context.Background()
	req := s.postRequest()
	req.Lines[1].Credit = decimal.NewFromInt(90)

	_, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrUnbalancedEntry)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SaveEntry", mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestPostEntry_BothSidesSet() {
	ctx := context.Background()
	req := s.postRequest()
	req.Lines[0].Credit = decimal.NewFromInt(100)

	_, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrUnbalancedEntry)
}

func (s *LedgerServiceTestSuite) TestPostEntry_TooFewLines() {
	ctx := context.Background()
	req := s.postRequest()
	req.Lines = req.Lines[:1]

	_, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrEntryMinLines)
}

func (s *LedgerServiceTestSuite) TestPostEntry_ExcessPrecisionRejected() {
	ctx := context.Background()
	req := s.postRequest()
	req.Lines[0].Debit = decimal.RequireFromString("100.005")
	req.Lines[1].Credit = decimal.RequireFromString("100.005")

	_, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerServiceTestSuite) TestPostEntry_InactiveAccount() {
	ctx := context.Background()
	req := s.postRequest()

	inactive := s.cashAccount
	inactive.IsActive = false
	accounts := s.accountsMap()
	accounts[inactive.Code] = inactive

	s.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(accounts, nil).Once()

	_, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrAccountInactive)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SaveEntry", mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestPostEntry_UnknownAccount() {
	ctx := context.Background()
	req := s.postRequest()

	partial := map[domain.AccountCode]domain.Account{s.cashAccount.Code: s.cashAccount}
	s.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(partial, nil).Once()

	_, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrAccountNotFound)
}

func (s *LedgerServiceTestSuite) TestPostEntry_DuplicateReturnsPriorEntry() {
	ctx := context.Background()
	req := s.postRequest()

	prior := &domain.JournalEntry{
		EntryID:        uuid.NewString(),
		SourceType:     domain.SourceSale,
		SourceID:       req.SourceID,
		IdempotencyKey: req.IdempotencyKey,
		Status:         domain.Posted,
	}

	s.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(s.accountsMap(), nil).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(prior, nil).Once()

	entry, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrDuplicatePosting)
	s.Require().NotNil(entry)
	s.Equal(prior.EntryID, entry.EntryID)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SaveEntry", mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestPostEntry_DuplicateRaceLostFetchesWinner() {
	ctx := context.Background()
	req := s.postRequest()

	prior := &domain.JournalEntry{EntryID: uuid.NewString()}

	s.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(s.accountsMap(), nil).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(nil, apperrors.ErrNotFound).Once()
	s.mockLedgerRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry")).Return(apperrors.ErrDuplicate).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(prior, nil).Once()

	entry, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrDuplicatePosting)
	s.Require().NotNil(entry)
	s.Equal(prior.EntryID, entry.EntryID)
}

func (s *LedgerServiceTestSuite) TestPostEntry_SessionAttributedPostingAccepted() {
	ctx := context.Background()
	req := s.postRequest()
	req.Lines[0].SessionID = "sess-100"
	req.Lines[1].SessionID = "sess-100"

	s.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(s.accountsMap(), nil).Once()
	// One lookup per distinct session, not per line.
	s.mockLedgerRepo.On("SessionStatus", ctx, "sess-100").Return(domain.SessionOpen, nil).Once()
	s.mockLedgerRepo.On("FindEntryBySourceKey", ctx, domain.SourceSale, req.SourceID, req.IdempotencyKey).Return(nil, apperrors.ErrNotFound).Once()
	s.mockLedgerRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Once()

	entry, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().NoError(err)
	s.Equal("sess-100", entry.Lines[0].SessionID)
	s.mockLedgerRepo.AssertExpectations(s.T())
}

func (s *LedgerServiceTestSuite) TestPostEntry_ClosedSessionAttributionRefused() {
	ctx := context.Background()
	req := s.postRequest()
	req.Lines[0].SessionID = "sess-101"
	req.Lines[1].SessionID = "sess-101"

	s.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(s.accountsMap(), nil).Once()
	s.mockLedgerRepo.On("SessionStatus", ctx, "sess-101").Return(domain.SessionClosed, nil).Once()

	_, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrSessionNotOpen)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SaveEntry", mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestPostEntry_UnknownSessionAttributionRejected() {
	ctx := context.Background()
	req := s.postRequest()
	req.Lines[0].SessionID = "sess-missing"

	s.mockAccountSvc.On("GetAccountsByCodes", ctx, mock.Anything).Return(s.accountsMap(), nil).Once()
	s.mockLedgerRepo.On("SessionStatus", ctx, "sess-missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := s.service.PostEntry(ctx, req, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SaveEntry", mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) postedEntry() *domain.JournalEntry {
	entryID := uuid.NewString()
	return &domain.JournalEntry{
		EntryID:        entryID,
		EntryDate:      time.Now().UTC(),
		PostedAt:       time.Now().UTC(),
		SourceType:     domain.SourceSale,
		SourceID:       "order-2001",
		IdempotencyKey: "k-2001",
		Memo:           "Cash sale",
		CurrencyCode:   "KES",
		Status:         domain.Posted,
		Lines: []domain.JournalLine{
			{LineID: uuid.NewString(), EntryID: entryID, AccountCode: domain.AccountCash, Debit: 10000},
			{LineID: uuid.NewString(), EntryID: entryID, AccountCode: domain.AccountSales, Credit: 10000},
		},
	}
}

func (s *LedgerServiceTestSuite) TestReverseEntry_Success() {
	ctx := context.Background()
	original := s.postedEntry()

	s.mockLedgerRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()
	s.mockLedgerRepo.On("Begin", ctx).Return(nil, nil).Once()
	s.mockLedgerRepo.On("SaveEntryInTx", ctx, nil, mock.AnythingOfType("domain.JournalEntry")).Return(nil).Once()
	s.mockLedgerRepo.On("UpdateEntryStatusAndLinks", ctx, nil, original.EntryID, domain.Reversed, mock.AnythingOfType("*string"), s.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	s.mockLedgerRepo.On("Commit", ctx, nil).Return(nil).Once()
	s.mockLedgerRepo.On("Rollback", ctx, nil).Return(nil).Once()

	reversing, err := s.service.ReverseEntry(ctx, original.EntryID, s.userID)

	s.Require().NoError(err)
	s.Require().NotNil(reversing)
	s.Equal(domain.SourceReversal, reversing.SourceType)
	s.Equal(original.EntryID, reversing.SourceID)
	s.Equal("reversal-"+original.EntryID, reversing.IdempotencyKey)
	s.Require().NotNil(reversing.OriginalEntryID)
	s.Equal(original.EntryID, *reversing.OriginalEntryID)

	// Sides are swapped line for line.
	s.Len(reversing.Lines, 2)
	s.Equal(domain.Amount(10000), reversing.Lines[0].Credit)
	s.Equal(domain.Amount(0), reversing.Lines[0].Debit)
	s.Equal(domain.Amount(10000), reversing.Lines[1].Debit)

	s.mockLedgerRepo.AssertExpectations(s.T())
}

func (s *LedgerServiceTestSuite) TestReverseEntry_AlreadyReversed() {
	ctx := context.Background()
	original := s.postedEntry()
	original.Status = domain.Reversed

	s.mockLedgerRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()

	_, err := s.service.ReverseEntry(ctx, original.EntryID, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrEntryNotPosted)
}

func (s *LedgerServiceTestSuite) TestReverseEntry_OfReversalRefused() {
	ctx := context.Background()
	original := s.postedEntry()
	sourceID := uuid.NewString()
	original.OriginalEntryID = &sourceID

	s.mockLedgerRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()

	_, err := s.service.ReverseEntry(ctx, original.EntryID, s.userID)

	s.Require().Error(err)
	s.ErrorIs(err, services.ErrAlreadyReversal)
}

func (s *LedgerServiceTestSuite) TestAccountBalance_DelegatesAfterAccountCheck() {
	ctx := context.Background()

	s.mockAccountSvc.On("GetAccountByCode", ctx, domain.AccountCash).Return(&s.cashAccount, nil).Once()
	s.mockLedgerRepo.On("AccountBalance", ctx, domain.AccountCash, (*time.Time)(nil)).Return(domain.Amount(42150), nil).Once()

	balance, err := s.service.AccountBalance(ctx, domain.AccountCash, nil)

	s.Require().NoError(err)
	s.Equal(domain.Amount(42150), balance)
}

func (s *LedgerServiceTestSuite) TestAccountStatement_UnknownAccount() {
	ctx := context.Background()

	s.mockAccountSvc.On("GetAccountByCode", ctx, domain.AccountCode("9999-NOPE")).Return(nil, apperrors.ErrNotFound).Once()

	_, err := s.service.AccountStatement(ctx, "9999-NOPE", dto.ListLinesParams{})

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
