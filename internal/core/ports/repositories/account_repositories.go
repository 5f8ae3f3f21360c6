package repositories

import (
	"context"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
)

// AccountReader defines read operations for the chart of accounts.
type AccountReader interface {
	// FindAccountByCode retrieves a specific account by its unique code.
	FindAccountByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error)

	// FindAccountsByCodes retrieves multiple accounts keyed by code.
	FindAccountsByCodes(ctx context.Context, codes []domain.AccountCode) (map[domain.AccountCode]domain.Account, error)

	// ListAccounts retrieves accounts, optionally filtered to active ones.
	ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error)
}

// AccountWriter defines write operations for the chart of accounts.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's details.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, code domain.AccountCode, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
