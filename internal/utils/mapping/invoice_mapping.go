package mapping

import (
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/models"
)

// ToModelInvoice converts a domain Invoice to a model Invoice
func ToModelInvoice(d domain.Invoice) models.Invoice {
	return models.Invoice{
		InvoiceID:   string(d.InvoiceID),
		PartyID:     string(d.PartyID),
		Kind:        string(d.Kind),
		Reference:   d.Reference,
		Total:       int64(d.Total),
		Paid:        int64(d.Paid),
		Status:      string(d.Status),
		IssuedAt:    d.IssuedAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInvoice converts a model Invoice to a domain Invoice
func ToDomainInvoice(m models.Invoice) domain.Invoice {
	return domain.Invoice{
		InvoiceID:   domain.InvoiceID(m.InvoiceID),
		PartyID:     domain.PartyID(m.PartyID),
		Kind:        domain.InvoiceKind(m.Kind),
		Reference:   m.Reference,
		Total:       domain.Amount(m.Total),
		Paid:        domain.Amount(m.Paid),
		Status:      domain.InvoiceStatus(m.Status),
		IssuedAt:    m.IssuedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainInvoiceSlice converts a slice of model Invoices
func ToDomainInvoiceSlice(ms []models.Invoice) []domain.Invoice {
	ds := make([]domain.Invoice, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainInvoice(m)
	}
	return ds
}
