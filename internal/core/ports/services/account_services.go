package services

import (
	"context"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/dto"
)

// AccountSvcFacade defines operations on the chart of accounts.
type AccountSvcFacade interface {
	// CreateAccount creates a new ledger account.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)

	// GetAccountByCode retrieves a single account.
	GetAccountByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error)

	// GetAccountsByCodes retrieves multiple accounts keyed by code.
	GetAccountsByCodes(ctx context.Context, codes []domain.AccountCode) (map[domain.AccountCode]domain.Account, error)

	// ListAccounts retrieves accounts, optionally only active ones.
	ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error)

	// DeactivateAccount marks an account inactive; postings to it are refused.
	DeactivateAccount(ctx context.Context, code domain.AccountCode, userID string) error
}
