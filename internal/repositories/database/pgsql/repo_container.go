package pgsql

import (
	portsrepo "github.com/dukapos/pos_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	creditRepo := newPgxCreditRepository(dbPool)
	invoiceRepo := newPgxInvoiceRepository(dbPool)
	sessionRepo := newPgxSessionRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo: accountRepo,
		LedgerRepo:  ledgerRepo,
		CreditRepo:  creditRepo,
		InvoiceRepo: invoiceRepo,
		SessionRepo: sessionRepo,
	}
}
