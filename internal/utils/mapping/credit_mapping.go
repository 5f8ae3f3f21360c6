package mapping

import (
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/models"
)

// ToModelCreditProfile converts a domain CreditProfile to a model CreditProfile
func ToModelCreditProfile(d domain.CreditProfile) models.CreditProfile {
	return models.CreditProfile{
		PartyID:             string(d.PartyID),
		PartyType:           string(d.PartyType),
		Approved:            d.Approved,
		CreditLimit:         int64(d.CreditLimit),
		CreditDurationDays:  d.CreditDurationDays,
		Frozen:              d.Frozen,
		LastRepaymentAt:     d.LastRepaymentAt,
		LastRepaymentAmount: int64(d.LastRepaymentAmount),
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCreditProfile converts a model CreditProfile to a domain CreditProfile
func ToDomainCreditProfile(m models.CreditProfile) domain.CreditProfile {
	return domain.CreditProfile{
		PartyID:             domain.PartyID(m.PartyID),
		PartyType:           domain.PartyType(m.PartyType),
		Approved:            m.Approved,
		CreditLimit:         domain.Amount(m.CreditLimit),
		CreditDurationDays:  m.CreditDurationDays,
		Frozen:              m.Frozen,
		LastRepaymentAt:     m.LastRepaymentAt,
		LastRepaymentAmount: domain.Amount(m.LastRepaymentAmount),
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}
