package repositories

import (
	"context"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// EntryReader defines read operations for journal entries and their lines.
type EntryReader interface {
	// FindEntryByID retrieves a journal entry together with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntriesBySource retrieves all entries produced by one business
	// event, for audit reconstruction.
	FindEntriesBySource(ctx context.Context, sourceType domain.SourceType, sourceID string) ([]domain.JournalEntry, error)

	// FindEntryBySourceKey looks up an entry by its full idempotency key.
	// Returns apperrors.ErrNotFound when no prior posting exists.
	FindEntryBySourceKey(ctx context.Context, sourceType domain.SourceType, sourceID, idempotencyKey string) (*domain.JournalEntry, error)

	// ListLinesByAccount retrieves a paginated account statement, newest
	// first, using token-based pagination.
	ListLinesByAccount(ctx context.Context, accountCode domain.AccountCode, limit int, nextToken *string) ([]domain.JournalLine, *string, error)
}

// EntryWriter defines write operations for journal entries.
type EntryWriter interface {
	// SaveEntry persists an entry and all of its lines atomically in its own
	// transaction. No partial entry ever persists.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// SaveEntryInTx persists an entry and its lines inside a caller-owned
	// transaction, so allocation steps and invoice updates commit together.
	SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry) error

	// UpdateEntryStatusAndLinks marks an entry reversed and records the
	// linkage between the original and reversing entries.
	UpdateEntryStatusAndLinks(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, reversingEntryID *string, updatedBy string, updatedAt time.Time) error
}

// BalanceReader derives balances from postings. These are the only balance
// sources in the system; nothing caches them as truth.
type BalanceReader interface {
	// AccountBalance sums the signed postings against an account, optionally
	// as of a point in time.
	AccountBalance(ctx context.Context, accountCode domain.AccountCode, asOf *time.Time) (domain.Amount, error)

	// PartyOutstanding sums the signed postings for one party against the
	// given receivable/payable account.
	PartyOutstanding(ctx context.Context, partyID domain.PartyID, accountCode domain.AccountCode) (domain.Amount, error)

	// PartyOutstandingInTx is PartyOutstanding inside a caller-owned
	// transaction, for use under an advisory party lock.
	PartyOutstandingInTx(ctx context.Context, tx pgx.Tx, partyID domain.PartyID, accountCode domain.AccountCode) (domain.Amount, error)

	// SessionExpected sums the postings attributed to a session window for
	// one account, i.e. the system-expected takings for a cash count.
	SessionExpected(ctx context.Context, sessionID string, accountCode domain.AccountCode) (domain.Amount, error)

	// SessionStatus reports the lifecycle status of a session, so posting
	// paths can refuse attribution to anything but an Open session. Returns
	// apperrors.ErrNotFound for an unknown session.
	SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error)
}

// LedgerRepositoryFacade combines all ledger repository interfaces.
type LedgerRepositoryFacade interface {
	EntryReader
	EntryWriter
	BalanceReader
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction and
// party-lock capabilities.
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
	PartyLocker
}
