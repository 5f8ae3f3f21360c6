package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// Account represents a named ledger bucket. Its balance is never stored on
// the account row; it is always derived by summing the signed postings
// against it (see LedgerSvcFacade.AccountBalance).
type Account struct {
	Code         AccountCode `json:"code"`         // Unique, human-assigned
	Name         string      `json:"name"`         // Display name
	AccountType  AccountType `json:"accountType"`  // ASSET, LIABILITY, etc.
	CurrencyCode string      `json:"currencyCode"` // ISO 4217
	ParentCode   AccountCode `json:"parentCode"`   // Optional, for hierarchical rollups
	Description  string      `json:"description"`
	IsActive     bool        `json:"isActive"`
	AuditFields
}

// Well-known account codes seeded by the initial migration. Channel-specific
// cash buckets (till, M-Pesa) hang off AccountCash as children.
const (
	AccountCash               AccountCode = "1000-CASH"
	AccountMobileMoney        AccountCode = "1010-MPESA"
	AccountReceivable         AccountCode = "1100-AR"
	AccountPayable            AccountCode = "2100-AP"
	AccountSales              AccountCode = "4000-SALES"
	AccountCashOverShort      AccountCode = "5900-CASH-OVER-SHORT"
	AccountCustomerPrepayment AccountCode = "2200-PREPAY"
)
