package repositories

import (
	"context"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
)

// CreditProfileReader defines read operations for credit profiles.
type CreditProfileReader interface {
	// FindProfileByPartyID retrieves the credit profile attached to a party.
	FindProfileByPartyID(ctx context.Context, partyID domain.PartyID) (*domain.CreditProfile, error)
}

// CreditProfileWriter defines write operations for credit profiles. These are
// the only mutations a profile ever sees; they never touch the ledger.
type CreditProfileWriter interface {
	// SaveProfile persists a new credit profile.
	SaveProfile(ctx context.Context, profile domain.CreditProfile) error

	// UpdateProfile updates approval, limit, duration, freeze state or the
	// informational last-repayment fields.
	UpdateProfile(ctx context.Context, profile domain.CreditProfile) error
}

// CreditRepositoryFacade combines all credit-profile repository interfaces.
type CreditRepositoryFacade interface {
	CreditProfileReader
	CreditProfileWriter
}
