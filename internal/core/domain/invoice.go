package domain

import "time"

// InvoiceKind distinguishes sales invoices (money owed to us) from purchase
// invoices (money we owe).
type InvoiceKind string

const (
	SalesInvoice    InvoiceKind = "SALE"
	PurchaseInvoice InvoiceKind = "PURCHASE"
)

// InvoiceStatus tracks settlement progress. The invoice's wider lifecycle
// (drafting, confirmation, fulfilment) is owned by the order-management side;
// the allocator only moves it between the settlement states.
type InvoiceStatus string

const (
	InvoiceDraft         InvoiceStatus = "DRAFT"
	InvoiceConfirmed     InvoiceStatus = "CONFIRMED"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
)

// Invoice is the unit of payment allocation.
type Invoice struct {
	InvoiceID InvoiceID     `json:"invoiceID"`
	PartyID   PartyID       `json:"partyID"`
	Kind      InvoiceKind   `json:"kind"`
	Reference string        `json:"reference"` // Human-facing number, e.g. "SO-2026-0142"
	Total     Amount        `json:"total"`
	Paid      Amount        `json:"paid"`
	Status    InvoiceStatus `json:"status"`
	IssuedAt  time.Time     `json:"issuedAt"`
	AuditFields
}

// Unpaid returns the outstanding balance on the invoice.
func (i Invoice) Unpaid() Amount {
	if i.Paid >= i.Total {
		return 0
	}
	return i.Total - i.Paid
}

// Allocatable reports whether payments may be applied to the invoice. Only
// confirmed invoices carry a debt to settle.
func (i Invoice) Allocatable() bool {
	return i.Status == InvoiceConfirmed || i.Status == InvoicePartiallyPaid
}

// InvoiceAllocation records how much of a payment was applied to one invoice.
type InvoiceAllocation struct {
	InvoiceID  InvoiceID `json:"invoiceID"`
	Reference  string    `json:"reference"`
	AmountPaid Amount    `json:"amountPaid"`
	EntryID    string    `json:"entryID"` // Journal entry that posted this application
}

// AllocationResult describes the full outcome of distributing a payment
// across invoices. Every currency unit of the payment is accounted for:
// TotalAllocated + ExcessPayment == the original payment amount.
type AllocationResult struct {
	AllocationID     string              `json:"allocationID"`
	PartyID          PartyID             `json:"partyID"`
	PaymentAmount    Amount              `json:"paymentAmount"`
	TotalAllocated   Amount              `json:"totalAllocated"`
	ExcessPayment    Amount              `json:"excessPayment"`    // Left over after all candidates settled
	RemainingBalance Amount              `json:"remainingBalance"` // Unpaid across ALL the party's invoices
	InvoicesPaid     []InvoiceAllocation `json:"invoicesPaid"`
}
