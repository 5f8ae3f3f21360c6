package services

import (
	"context"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/dto"
)

// LedgerSvcFacade defines the journal posting and balance derivation
// operations every other module builds on.
type LedgerSvcFacade interface {
	// PostEntry validates and durably posts a balanced journal entry.
	// Posting the same (sourceType, sourceID, idempotencyKey) twice returns
	// ErrDuplicatePosting with the prior entry attached.
	PostEntry(ctx context.Context, req dto.PostEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// GetEntry retrieves an entry with its lines.
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// EntriesForSource reconstructs what a business event posted.
	EntriesForSource(ctx context.Context, sourceType domain.SourceType, sourceID string) ([]domain.JournalEntry, error)

	// ReverseEntry posts the offsetting entry for a posted entry and links
	// the pair. This is the only form of correction.
	ReverseEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)

	// AccountBalance derives an account balance from its postings.
	AccountBalance(ctx context.Context, code domain.AccountCode, asOf *time.Time) (domain.Amount, error)

	// AccountStatement lists an account's lines, paginated.
	AccountStatement(ctx context.Context, code domain.AccountCode, params dto.ListLinesParams) (*dto.AccountStatementResponse, error)
}
