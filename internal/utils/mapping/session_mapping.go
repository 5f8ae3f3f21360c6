package mapping

import (
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/models"
)

// ToModelCashierSession converts a domain CashierSession to a model CashierSession
func ToModelCashierSession(d domain.CashierSession) models.CashierSession {
	return models.CashierSession{
		SessionID:   d.SessionID,
		Channel:     d.Channel,
		CashierID:   d.CashierID,
		Status:      string(d.Status),
		OpenedAt:    d.OpenedAt,
		ClosedAt:    d.ClosedAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCashierSession converts a model CashierSession to a domain CashierSession
func ToDomainCashierSession(m models.CashierSession) domain.CashierSession {
	return domain.CashierSession{
		SessionID:   m.SessionID,
		Channel:     m.Channel,
		CashierID:   m.CashierID,
		Status:      domain.SessionStatus(m.Status),
		OpenedAt:    m.OpenedAt,
		ClosedAt:    m.ClosedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelCashCount converts a domain CashCount to a model CashCount
func ToModelCashCount(d domain.CashCount) models.CashCount {
	return models.CashCount{
		CountID:        d.CountID,
		SessionID:      d.SessionID,
		AccountCode:    string(d.AccountCode),
		Declared:       int64(d.Declared),
		Expected:       int64(d.Expected),
		Variance:       int64(d.Variance),
		HasVariance:    d.HasVariance,
		VarianceReason: d.VarianceReason,
		ReviewedBy:     d.ReviewedBy,
		ReviewedAt:     d.ReviewedAt,
		ReviewNotes:    d.ReviewNotes,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCashCount converts a model CashCount to a domain CashCount
func ToDomainCashCount(m models.CashCount) domain.CashCount {
	return domain.CashCount{
		CountID:        m.CountID,
		SessionID:      m.SessionID,
		AccountCode:    domain.AccountCode(m.AccountCode),
		Declared:       domain.Amount(m.Declared),
		Expected:       domain.Amount(m.Expected),
		Variance:       domain.Amount(m.Variance),
		HasVariance:    m.HasVariance,
		VarianceReason: m.VarianceReason,
		ReviewedBy:     m.ReviewedBy,
		ReviewedAt:     m.ReviewedAt,
		ReviewNotes:    m.ReviewNotes,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCashCountSlice converts a slice of model CashCounts
func ToDomainCashCountSlice(ms []models.CashCount) []domain.CashCount {
	ds := make([]domain.CashCount, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCashCount(m)
	}
	return ds
}

// ToDomainReconciliation converts a model Reconciliation and its lines
func ToDomainReconciliation(m models.Reconciliation, lines []models.ReconciliationLine) domain.Reconciliation {
	domainLines := make([]domain.ReconciliationLine, len(lines))
	for i, l := range lines {
		domainLines[i] = domain.ReconciliationLine{
			AccountCode: domain.AccountCode(l.AccountCode),
			Declared:    domain.Amount(l.Declared),
			Expected:    domain.Amount(l.Expected),
			Variance:    domain.Amount(l.Variance),
		}
	}
	return domain.Reconciliation{
		ReconciliationID: m.ReconciliationID,
		SessionID:        m.SessionID,
		Notes:            m.Notes,
		Lines:            domainLines,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainMobileMoneyCheck converts a model MobileMoneyCheck
func ToDomainMobileMoneyCheck(m models.MobileMoneyCheck) domain.MobileMoneyCheck {
	return domain.MobileMoneyCheck{
		CheckID:    m.CheckID,
		SessionID:  m.SessionID,
		TxnRef:     m.TxnRef,
		Confirmed:  m.Confirmed,
		Flagged:    m.Flagged,
		Notes:      m.Notes,
		VerifiedBy: m.VerifiedBy,
		VerifiedAt: m.VerifiedAt,
	}
}
