package models

// Account represents a row in the accounts table. Balances are never stored
// here; they are derived from journal_lines.
type Account struct {
	Code         string `db:"code"`
	Name         string `db:"name"`
	AccountType  string `db:"account_type"`
	CurrencyCode string `db:"currency_code"`
	ParentCode   string `db:"parent_code"` // Nullable
	Description  string `db:"description"`
	IsActive     bool   `db:"is_active"`
	AuditFields
}
