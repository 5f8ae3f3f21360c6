package dto

import (
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the payload for creating a ledger account.
type CreateAccountRequest struct {
	Code         string `json:"code" binding:"required,accountcode"`
	Name         string `json:"name" binding:"required"`
	AccountType  string `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	CurrencyCode string `json:"currencyCode" binding:"required,len=3"`
	ParentCode   string `json:"parentCode,omitempty"`
	Description  string `json:"description,omitempty"`
}

// AccountResponse defines the data returned for an account. Balance is
// derived from postings at response time, never read from a stored field.
type AccountResponse struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	AccountType  string          `json:"accountType"`
	CurrencyCode string          `json:"currencyCode"`
	ParentCode   string          `json:"parentCode,omitempty"`
	Description  string          `json:"description,omitempty"`
	IsActive     bool            `json:"isActive"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account plus its derived balance.
func ToAccountResponse(a *domain.Account, balance domain.Amount, exponent int32) AccountResponse {
	return AccountResponse{
		Code:         string(a.Code),
		Name:         a.Name,
		AccountType:  string(a.AccountType),
		CurrencyCode: a.CurrencyCode,
		ParentCode:   string(a.ParentCode),
		Description:  a.Description,
		IsActive:     a.IsActive,
		Balance:      balance.Decimal(exponent),
		CreatedAt:    a.CreatedAt,
	}
}
