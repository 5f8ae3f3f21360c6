package dto

import (
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AllocateBulkRequest distributes one payment across a party's outstanding
// invoices, oldest first. When InvoiceIDs is empty all unpaid invoices are
// candidates.
type AllocateBulkRequest struct {
	PartyID        string          `json:"partyID" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	InvoiceIDs     []string        `json:"invoiceIDs,omitempty"`
	CreditAccount  string          `json:"creditAccount,omitempty"` // Account actually receiving the money; defaults to cash
	SourceID       string          `json:"sourceID" binding:"required"` // Payment reference
	IdempotencyKey string          `json:"idempotencyKey" binding:"required"`
	SessionID      string          `json:"sessionID,omitempty"` // Attributes the takings to a cashier session
	Memo           string          `json:"memo,omitempty"`
}

// AllocateSingleRequest pays one specific invoice. When Amount is omitted it
// defaults to the invoice's full outstanding balance.
type AllocateSingleRequest struct {
	InvoiceID      string           `json:"invoiceID" binding:"required"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	CreditAccount  string           `json:"creditAccount,omitempty"`
	SourceID       string           `json:"sourceID" binding:"required"`
	IdempotencyKey string           `json:"idempotencyKey" binding:"required"`
	SessionID      string           `json:"sessionID,omitempty"`
	Memo           string           `json:"memo,omitempty"`
}

// InvoiceAllocationResponse is one invoice's share of an allocation.
type InvoiceAllocationResponse struct {
	InvoiceID  string          `json:"invoiceID"`
	Reference  string          `json:"reference"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	EntryID    string          `json:"entryID"`
}

// AllocationResponse mirrors domain.AllocationResult at the boundary.
type AllocationResponse struct {
	AllocationID     string                      `json:"allocationID"`
	PartyID          string                      `json:"partyID"`
	PaymentAmount    decimal.Decimal             `json:"paymentAmount"`
	TotalAllocated   decimal.Decimal             `json:"totalAllocated"`
	ExcessPayment    decimal.Decimal             `json:"excessPayment"`
	RemainingBalance decimal.Decimal             `json:"remainingBalance"`
	InvoicesPaid     []InvoiceAllocationResponse `json:"invoicesPaid"`
}

// InvoiceResponse defines the data returned for an invoice.
type InvoiceResponse struct {
	InvoiceID string          `json:"invoiceID"`
	PartyID   string          `json:"partyID"`
	Kind      string          `json:"kind"`
	Reference string          `json:"reference"`
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Unpaid    decimal.Decimal `json:"unpaid"`
	Status    string          `json:"status"`
	IssuedAt  time.Time       `json:"issuedAt"`
}

// ToAllocationResponse converts a domain.AllocationResult.
func ToAllocationResponse(r *domain.AllocationResult, exponent int32) AllocationResponse {
	paid := make([]InvoiceAllocationResponse, len(r.InvoicesPaid))
	for i, p := range r.InvoicesPaid {
		paid[i] = InvoiceAllocationResponse{
			InvoiceID:  string(p.InvoiceID),
			Reference:  p.Reference,
			AmountPaid: p.AmountPaid.Decimal(exponent),
			EntryID:    p.EntryID,
		}
	}
	return AllocationResponse{
		AllocationID:     r.AllocationID,
		PartyID:          string(r.PartyID),
		PaymentAmount:    r.PaymentAmount.Decimal(exponent),
		TotalAllocated:   r.TotalAllocated.Decimal(exponent),
		ExcessPayment:    r.ExcessPayment.Decimal(exponent),
		RemainingBalance: r.RemainingBalance.Decimal(exponent),
		InvoicesPaid:     paid,
	}
}

// ToInvoiceResponse converts a domain.Invoice.
func ToInvoiceResponse(inv *domain.Invoice, exponent int32) InvoiceResponse {
	return InvoiceResponse{
		InvoiceID: string(inv.InvoiceID),
		PartyID:   string(inv.PartyID),
		Kind:      string(inv.Kind),
		Reference: inv.Reference,
		Total:     inv.Total.Decimal(exponent),
		Paid:      inv.Paid.Decimal(exponent),
		Unpaid:    inv.Unpaid().Decimal(exponent),
		Status:    string(inv.Status),
		IssuedAt:  inv.IssuedAt,
	}
}

// ToInvoiceResponses converts a slice of domain.Invoice.
func ToInvoiceResponses(invoices []domain.Invoice, exponent int32) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i], exponent)
	}
	return responses
}
