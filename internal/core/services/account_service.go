package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/dukapos/pos_ledger_app/internal/middleware"
)

// accountService manages the chart of accounts.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount creates a new ledger account.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.ParentCode != "" {
		parent, err := s.accountRepo.FindAccountByCode(ctx, domain.AccountCode(req.ParentCode))
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: parent account %s does not exist", apperrors.ErrValidation, req.ParentCode)
			}
			return nil, err
		}
		if parent.AccountType != domain.AccountType(req.AccountType) {
			return nil, fmt.Errorf("%w: parent account %s has type %s, child declares %s", apperrors.ErrValidation, req.ParentCode, parent.AccountType, req.AccountType)
		}
	}

	now := time.Now().UTC()
	account := domain.Account{
		Code:         domain.AccountCode(req.Code),
		Name:         req.Name,
		AccountType:  domain.AccountType(req.AccountType),
		CurrencyCode: req.CurrencyCode,
		ParentCode:   domain.AccountCode(req.ParentCode),
		Description:  req.Description,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, req.Code)
		}
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("code", req.Code), slog.String("type", req.AccountType))
	return &account, nil
}

// GetAccountByCode retrieves a single account.
func (s *accountService) GetAccountByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error) {
	return s.accountRepo.FindAccountByCode(ctx, code)
}

// GetAccountsByCodes retrieves multiple accounts keyed by code.
func (s *accountService) GetAccountsByCodes(ctx context.Context, codes []domain.AccountCode) (map[domain.AccountCode]domain.Account, error) {
	return s.accountRepo.FindAccountsByCodes(ctx, codes)
}

// ListAccounts retrieves accounts.
func (s *accountService) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx, activeOnly)
}

// DeactivateAccount marks an account inactive.
func (s *accountService) DeactivateAccount(ctx context.Context, code domain.AccountCode, userID string) error {
	if _, err := s.accountRepo.FindAccountByCode(ctx, code); err != nil {
		return err
	}
	return s.accountRepo.DeactivateAccount(ctx, code, userID, time.Now().UTC())
}
