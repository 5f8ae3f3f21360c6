package services

import (
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Account service first since the others resolve accounts through it
	container.Account = NewAccountService(repos.AccountRepo)

	container.Ledger = NewLedgerService(
		repos.LedgerRepo,
		container.Account,
		cfg.DefaultCurrencyCode,
		cfg.CurrencyExponent,
	)
	container.Credit = NewCreditService(
		repos.CreditRepo,
		repos.LedgerRepo,
		cfg.DefaultCurrencyCode,
		cfg.CurrencyExponent,
	)
	container.Allocation = NewAllocationService(
		repos.InvoiceRepo,
		repos.LedgerRepo,
		repos.CreditRepo,
		container.Account,
		cfg.DefaultCurrencyCode,
		cfg.CurrencyExponent,
	)
	container.Session = NewSessionService(
		repos.SessionRepo,
		repos.LedgerRepo,
		container.Account,
		domain.Amount(cfg.VarianceToleranceMinor),
		cfg.CurrencyExponent,
	)

	return container
}
