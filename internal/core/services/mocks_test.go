package services_test

import (
	"context"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryWithTx = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindEntriesBySource(ctx context.Context, sourceType domain.SourceType, sourceID string) ([]domain.JournalEntry, error) {
	args := m.Called(ctx, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindEntryBySourceKey(ctx context.Context, sourceType domain.SourceType, sourceID, idempotencyKey string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, sourceType, sourceID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListLinesByAccount(ctx context.Context, accountCode domain.AccountCode, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	args := m.Called(ctx, accountCode, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		val := args.Get(1).(string)
		token = &val
	}
	return args.Get(0).([]domain.JournalLine), token, args.Error(2)
}

func (m *MockLedgerRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) UpdateEntryStatusAndLinks(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, reversingEntryID *string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, entryID, status, reversingEntryID, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockLedgerRepository) AccountBalance(ctx context.Context, accountCode domain.AccountCode, asOf *time.Time) (domain.Amount, error) {
	args := m.Called(ctx, accountCode, asOf)
	return args.Get(0).(domain.Amount), args.Error(1)
}

func (m *MockLedgerRepository) PartyOutstanding(ctx context.Context, partyID domain.PartyID, accountCode domain.AccountCode) (domain.Amount, error) {
	args := m.Called(ctx, partyID, accountCode)
	return args.Get(0).(domain.Amount), args.Error(1)
}

func (m *MockLedgerRepository) PartyOutstandingInTx(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, accountCode domain.AccountCode) (domain.Amount, error) {
	args := m.Called(ctx, tx, partyID, accountCode)
	return args.Get(0).(domain.Amount), args.Error(1)
}

func (m *MockLedgerRepository) SessionExpected(ctx context.Context, sessionID string, accountCode domain.AccountCode) (domain.Amount, error) {
	args := m.Called(ctx, sessionID, accountCode)
	return args.Get(0).(domain.Amount), args.Error(1)
}

func (m *MockLedgerRepository) SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	status, _ := args.Get(0).(domain.SessionStatus)
	return status, args.Error(1)
}

func (m *MockLedgerRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockLedgerRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) AcquirePartyLock(ctx context.Context, tx pgx.Tx, partyID domain.PartyID) error {
	args := m.Called(ctx, tx, partyID)
	return args.Error(0)
}

// --- Mock AccountService ---

type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountsByCodes(ctx context.Context, codes []domain.AccountCode) (map[domain.AccountCode]domain.Account, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.AccountCode]domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, code domain.AccountCode, userID string) error {
	args := m.Called(ctx, code, userID)
	return args.Error(0)
}

// --- Mock CreditRepository ---

type MockCreditRepository struct {
	mock.Mock
}

var _ portsrepo.CreditRepositoryFacade = (*MockCreditRepository)(nil)

func (m *MockCreditRepository) FindProfileByPartyID(ctx context.Context, partyID domain.PartyID) (*domain.CreditProfile, error) {
	args := m.Called(ctx, partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreditProfile), args.Error(1)
}

func (m *MockCreditRepository) SaveProfile(ctx context.Context, profile domain.CreditProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockCreditRepository) UpdateProfile(ctx context.Context, profile domain.CreditProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// --- Mock InvoiceRepository ---

type MockInvoiceRepository struct {
	mock.Mock
}

var _ portsrepo.InvoiceRepositoryFacade = (*MockInvoiceRepository)(nil)

func (m *MockInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID domain.InvoiceID) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListUnpaidByParty(ctx context.Context, partyID domain.PartyID, kind domain.InvoiceKind) ([]domain.Invoice, error) {
	args := m.Called(ctx, partyID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindInvoicesForUpdate(ctx context.Context, tx pgx.Tx, invoiceIDs []domain.InvoiceID) ([]domain.Invoice, error) {
	args := m.Called(ctx, tx, invoiceIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListUnpaidByPartyForUpdate(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, kind domain.InvoiceKind) ([]domain.Invoice, error) {
	args := m.Called(ctx, tx, partyID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ApplyPaymentInTx(ctx context.Context, tx pgx.Tx, invoiceID domain.InvoiceID, amount domain.Amount, status domain.InvoiceStatus, updatedBy string) error {
	args := m.Called(ctx, tx, invoiceID, amount, status, updatedBy)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SumUnpaidByPartyInTx(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, kind domain.InvoiceKind) (domain.Amount, error) {
	args := m.Called(ctx, tx, partyID, kind)
	return args.Get(0).(domain.Amount), args.Error(1)
}

func (m *MockInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

// --- Mock SessionRepository ---

type MockSessionRepository struct {
	mock.Mock
}

var _ portsrepo.SessionRepositoryWithTx = (*MockSessionRepository)(nil)

func (m *MockSessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.CashierSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashierSession), args.Error(1)
}

func (m *MockSessionRepository) FindOpenSession(ctx context.Context, channel, cashierID string) (*domain.CashierSession, error) {
	args := m.Called(ctx, channel, cashierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashierSession), args.Error(1)
}

func (m *MockSessionRepository) ListSessions(ctx context.Context, cashierID string, limit int) ([]domain.CashierSession, error) {
	args := m.Called(ctx, cashierID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashierSession), args.Error(1)
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session domain.CashierSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) CloseSession(ctx context.Context, sessionID string, closedAt time.Time, updatedBy string) error {
	args := m.Called(ctx, sessionID, closedAt, updatedBy)
	return args.Error(0)
}

func (m *MockSessionRepository) CloseSessionInTx(ctx context.Context, tx pgx.Tx, sessionID string, closedAt time.Time, updatedBy string) error {
	args := m.Called(ctx, tx, sessionID, closedAt, updatedBy)
	return args.Error(0)
}

func (m *MockSessionRepository) MarkReconciled(ctx context.Context, sessionID string, updatedBy string, now time.Time) error {
	args := m.Called(ctx, sessionID, updatedBy, now)
	return args.Error(0)
}

func (m *MockSessionRepository) SaveCashCount(ctx context.Context, count domain.CashCount) error {
	args := m.Called(ctx, count)
	return args.Error(0)
}

func (m *MockSessionRepository) SaveCashCountInTx(ctx context.Context, tx pgx.Tx, count domain.CashCount) error {
	args := m.Called(ctx, tx, count)
	return args.Error(0)
}

func (m *MockSessionRepository) FindCashCountByID(ctx context.Context, countID string) (*domain.CashCount, error) {
	args := m.Called(ctx, countID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashCount), args.Error(1)
}

func (m *MockSessionRepository) ListCashCountsBySession(ctx context.Context, sessionID string) ([]domain.CashCount, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashCount), args.Error(1)
}

func (m *MockSessionRepository) UpdateCashCountReview(ctx context.Context, count domain.CashCount) error {
	args := m.Called(ctx, count)
	return args.Error(0)
}

func (m *MockSessionRepository) SaveReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockSessionRepository) FindReconciliationByID(ctx context.Context, reconciliationID string) (*domain.Reconciliation, error) {
	args := m.Called(ctx, reconciliationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reconciliation), args.Error(1)
}

func (m *MockSessionRepository) ListReconciliationsBySession(ctx context.Context, sessionID string) ([]domain.Reconciliation, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reconciliation), args.Error(1)
}

func (m *MockSessionRepository) SaveChecks(ctx context.Context, checks []domain.MobileMoneyCheck) error {
	args := m.Called(ctx, checks)
	return args.Error(0)
}

func (m *MockSessionRepository) ListChecksBySession(ctx context.Context, sessionID string) ([]domain.MobileMoneyCheck, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MobileMoneyCheck), args.Error(1)
}

func (m *MockSessionRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockSessionRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockSessionRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
