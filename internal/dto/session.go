package dto

import (
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// OpenSessionRequest opens a cashier session on a channel.
type OpenSessionRequest struct {
	Channel string `json:"channel" binding:"required"`
}

// DeclaredBalanceRequest is one account's declared amount.
type DeclaredBalanceRequest struct {
	AccountCode string          `json:"accountCode" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

// CloseSessionRequest closes a session with the cashier's declared totals
// per account (cash drawer, mobile money, ...).
type CloseSessionRequest struct {
	Declared []DeclaredBalanceRequest `json:"declared" binding:"required,min=1,dive"`
}

// RecordCashCountRequest records a mid-shift or closing count snapshot.
type RecordCashCountRequest struct {
	AccountCode    string          `json:"accountCode" binding:"required"`
	Declared       decimal.Decimal `json:"declared"`
	VarianceReason string          `json:"varianceReason,omitempty"`
}

// ReviewCashCountRequest attaches a supervisor review to a flagged count.
type ReviewCashCountRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// MobileMoneyCheckRequest marks one provider transaction as confirmed or not.
type MobileMoneyCheckRequest struct {
	TxnRef    string `json:"txnRef" binding:"required"`
	Confirmed bool   `json:"confirmed"`
	Notes     string `json:"notes,omitempty"`
}

// VerifyMobileMoneyRequest verifies a batch of mobile-money transactions for
// a session.
type VerifyMobileMoneyRequest struct {
	Checks []MobileMoneyCheckRequest `json:"checks" binding:"required,min=1,dive"`
}

// CreateReconciliationRequest produces a declared-vs-expected snapshot. With
// a SessionID the expected side is the session window; without one it is the
// account balances at snapshot time.
type CreateReconciliationRequest struct {
	SessionID string                   `json:"sessionID,omitempty"`
	Declared  []DeclaredBalanceRequest `json:"declared" binding:"required,min=1,dive"`
	Notes     string                   `json:"notes,omitempty"`
}

// SessionResponse defines the data returned for a cashier session.
type SessionResponse struct {
	SessionID string     `json:"sessionID"`
	Channel   string     `json:"channel"`
	CashierID string     `json:"cashierID"`
	Status    string     `json:"status"`
	OpenedAt  time.Time  `json:"openedAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

// CashCountResponse defines the data returned for a cash count.
type CashCountResponse struct {
	CountID        string          `json:"countID"`
	SessionID      string          `json:"sessionID"`
	AccountCode    string          `json:"accountCode"`
	Declared       decimal.Decimal `json:"declared"`
	Expected       decimal.Decimal `json:"expected"`
	Variance       decimal.Decimal `json:"variance"`
	HasVariance    bool            `json:"hasVariance"`
	VarianceReason string          `json:"varianceReason,omitempty"`
	ReviewedBy     string          `json:"reviewedBy,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewedAt,omitempty"`
	ReviewNotes    string          `json:"reviewNotes,omitempty"`
}

// ReconciliationLineResponse is one account's variance line.
type ReconciliationLineResponse struct {
	AccountCode string          `json:"accountCode"`
	Declared    decimal.Decimal `json:"declared"`
	Expected    decimal.Decimal `json:"expected"`
	Variance    decimal.Decimal `json:"variance"`
}

// ReconciliationResponse defines the data returned for a reconciliation.
type ReconciliationResponse struct {
	ReconciliationID string                       `json:"reconciliationID"`
	SessionID        string                       `json:"sessionID,omitempty"`
	Notes            string                       `json:"notes,omitempty"`
	Lines            []ReconciliationLineResponse `json:"lines"`
	CreatedAt        time.Time                    `json:"createdAt"`
	CreatedBy        string                       `json:"createdBy"`
}

// MobileMoneyVerificationResponse reports the verification state of a
// session's mobile-money takings.
type MobileMoneyVerificationResponse struct {
	SessionID    string                    `json:"sessionID"`
	AllConfirmed bool                      `json:"allConfirmed"`
	Checks       []MobileMoneyCheckSummary `json:"checks"`
}

// MobileMoneyCheckSummary is one verified transaction in the response.
type MobileMoneyCheckSummary struct {
	CheckID    string     `json:"checkID"`
	TxnRef     string     `json:"txnRef"`
	Confirmed  bool       `json:"confirmed"`
	Flagged    bool       `json:"flagged"`
	Notes      string     `json:"notes,omitempty"`
	VerifiedBy string     `json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

// ToSessionResponse converts a domain.CashierSession.
func ToSessionResponse(s *domain.CashierSession) SessionResponse {
	return SessionResponse{
		SessionID: s.SessionID,
		Channel:   s.Channel,
		CashierID: s.CashierID,
		Status:    string(s.Status),
		OpenedAt:  s.OpenedAt,
		ClosedAt:  s.ClosedAt,
	}
}

// ToSessionResponses converts a slice of domain.CashierSession.
func ToSessionResponses(sessions []domain.CashierSession) []SessionResponse {
	responses := make([]SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = ToSessionResponse(&sessions[i])
	}
	return responses
}

// ToCashCountResponse converts a domain.CashCount.
func ToCashCountResponse(c *domain.CashCount, exponent int32) CashCountResponse {
	return CashCountResponse{
		CountID:        c.CountID,
		SessionID:      c.SessionID,
		AccountCode:    string(c.AccountCode),
		Declared:       c.Declared.Decimal(exponent),
		Expected:       c.Expected.Decimal(exponent),
		Variance:       c.Variance.Decimal(exponent),
		HasVariance:    c.HasVariance,
		VarianceReason: c.VarianceReason,
		ReviewedBy:     c.ReviewedBy,
		ReviewedAt:     c.ReviewedAt,
		ReviewNotes:    c.ReviewNotes,
	}
}

// ToCashCountResponses converts a slice of domain.CashCount.
func ToCashCountResponses(counts []domain.CashCount, exponent int32) []CashCountResponse {
	responses := make([]CashCountResponse, len(counts))
	for i := range counts {
		responses[i] = ToCashCountResponse(&counts[i], exponent)
	}
	return responses
}

// ToReconciliationResponse converts a domain.Reconciliation.
func ToReconciliationResponse(r *domain.Reconciliation, exponent int32) ReconciliationResponse {
	lines := make([]ReconciliationLineResponse, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = ReconciliationLineResponse{
			AccountCode: string(l.AccountCode),
			Declared:    l.Declared.Decimal(exponent),
			Expected:    l.Expected.Decimal(exponent),
			Variance:    l.Variance.Decimal(exponent),
		}
	}
	return ReconciliationResponse{
		ReconciliationID: r.ReconciliationID,
		SessionID:        r.SessionID,
		Notes:            r.Notes,
		Lines:            lines,
		CreatedAt:        r.CreatedAt,
		CreatedBy:        r.CreatedBy,
	}
}

// ToMobileMoneyVerificationResponse converts a session's checks plus the
// derived allConfirmed gate.
func ToMobileMoneyVerificationResponse(sessionID string, checks []domain.MobileMoneyCheck) MobileMoneyVerificationResponse {
	summaries := make([]MobileMoneyCheckSummary, len(checks))
	allConfirmed := len(checks) > 0
	for i, c := range checks {
		if !c.Confirmed {
			allConfirmed = false
		}
		summaries[i] = MobileMoneyCheckSummary{
			CheckID:    c.CheckID,
			TxnRef:     c.TxnRef,
			Confirmed:  c.Confirmed,
			Flagged:    c.Flagged,
			Notes:      c.Notes,
			VerifiedBy: c.VerifiedBy,
			VerifiedAt: c.VerifiedAt,
		}
	}
	return MobileMoneyVerificationResponse{
		SessionID:    sessionID,
		AllConfirmed: allConfirmed,
		Checks:       summaries,
	}
}
