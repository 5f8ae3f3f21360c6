package dto

import (
	"time"

	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryLineRequest is one posting line in a PostEntryRequest. Exactly one of
// debit/credit must be greater than zero.
type EntryLineRequest struct {
	AccountCode string          `json:"accountCode" binding:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	PartyID     string          `json:"partyID,omitempty"`
	SessionID   string          `json:"sessionID,omitempty"`
	Memo        string          `json:"memo,omitempty"`
}

// PostEntryRequest defines the payload for posting a journal entry.
type PostEntryRequest struct {
	EntryDate      time.Time          `json:"entryDate" binding:"required"`
	SourceType     string             `json:"sourceType" binding:"required"`
	SourceID       string             `json:"sourceID" binding:"required"`
	IdempotencyKey string             `json:"idempotencyKey" binding:"required"`
	Memo           string             `json:"memo" binding:"required"`
	Lines          []EntryLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// LineResponse defines the data returned for a journal line.
type LineResponse struct {
	LineID      string          `json:"lineID"`
	EntryID     string          `json:"entryID"`
	AccountCode string          `json:"accountCode"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	PartyID     string          `json:"partyID,omitempty"`
	SessionID   string          `json:"sessionID,omitempty"`
	Memo        string          `json:"memo,omitempty"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID          string         `json:"entryID"`
	EntryDate        time.Time      `json:"entryDate"`
	PostedAt         time.Time      `json:"postedAt"`
	SourceType       string         `json:"sourceType"`
	SourceID         string         `json:"sourceID"`
	Memo             string         `json:"memo"`
	CurrencyCode     string         `json:"currencyCode"`
	Status           string         `json:"status"`
	OriginalEntryID  *string        `json:"originalEntryID,omitempty"`
	ReversingEntryID *string        `json:"reversingEntryID,omitempty"`
	Lines            []LineResponse `json:"lines,omitempty"`
}

// BalanceResponse defines the data returned for a derived account balance.
type BalanceResponse struct {
	AccountCode string          `json:"accountCode"`
	Balance     decimal.Decimal `json:"balance"`
	AsOf        *time.Time      `json:"asOf,omitempty"`
}

// ListLinesParams holds pagination parameters for an account statement.
type ListLinesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// AccountStatementResponse is a paginated account statement.
type AccountStatementResponse struct {
	AccountCode string         `json:"accountCode"`
	Lines       []LineResponse `json:"lines"`
	NextToken   *string        `json:"nextToken,omitempty"`
}

// ToLineResponse converts a domain.JournalLine to LineResponse.
func ToLineResponse(l *domain.JournalLine, exponent int32) LineResponse {
	return LineResponse{
		LineID:      l.LineID,
		EntryID:     l.EntryID,
		AccountCode: string(l.AccountCode),
		Debit:       l.Debit.Decimal(exponent),
		Credit:      l.Credit.Decimal(exponent),
		PartyID:     string(l.PartyID),
		SessionID:   l.SessionID,
		Memo:        l.Memo,
	}
}

// ToLineResponses converts a slice of domain.JournalLine.
func ToLineResponses(lines []domain.JournalLine, exponent int32) []LineResponse {
	responses := make([]LineResponse, len(lines))
	for i := range lines {
		responses[i] = ToLineResponse(&lines[i], exponent)
	}
	return responses
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse.
func ToEntryResponse(e *domain.JournalEntry, exponent int32) EntryResponse {
	return EntryResponse{
		EntryID:          e.EntryID,
		EntryDate:        e.EntryDate,
		PostedAt:         e.PostedAt,
		SourceType:       string(e.SourceType),
		SourceID:         e.SourceID,
		Memo:             e.Memo,
		CurrencyCode:     e.CurrencyCode,
		Status:           string(e.Status),
		OriginalEntryID:  e.OriginalEntryID,
		ReversingEntryID: e.ReversingEntryID,
		Lines:            ToLineResponses(e.Lines, exponent),
	}
}
