package mapping

import (
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	"github.com/dukapos/pos_ledger_app/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry.
// Lines travel separately; see ToModelJournalLine.
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:          d.EntryID,
		EntryDate:        d.EntryDate,
		PostedAt:         d.PostedAt,
		SourceType:       string(d.SourceType),
		SourceID:         d.SourceID,
		IdempotencyKey:   d.IdempotencyKey,
		Memo:             d.Memo,
		CurrencyCode:     d.CurrencyCode,
		Status:           string(d.Status),
		OriginalEntryID:  d.OriginalEntryID,
		ReversingEntryID: d.ReversingEntryID,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:          m.EntryID,
		EntryDate:        m.EntryDate,
		PostedAt:         m.PostedAt,
		SourceType:       domain.SourceType(m.SourceType),
		SourceID:         m.SourceID,
		IdempotencyKey:   m.IdempotencyKey,
		Memo:             m.Memo,
		CurrencyCode:     m.CurrencyCode,
		Status:           domain.EntryStatus(m.Status),
		OriginalEntryID:  m.OriginalEntryID,
		ReversingEntryID: m.ReversingEntryID,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:      d.LineID,
		EntryID:     d.EntryID,
		AccountCode: string(d.AccountCode),
		Debit:       int64(d.Debit),
		Credit:      int64(d.Credit),
		PartyID:     string(d.PartyID),
		SessionID:   d.SessionID,
		Memo:        d.Memo,
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:      m.LineID,
		EntryID:     m.EntryID,
		AccountCode: domain.AccountCode(m.AccountCode),
		Debit:       domain.Amount(m.Debit),
		Credit:      domain.Amount(m.Credit),
		PartyID:     domain.PartyID(m.PartyID),
		SessionID:   m.SessionID,
		Memo:        m.Memo,
	}
}

// ToDomainJournalLineSlice converts a slice of model JournalLines
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalLine(m)
	}
	return ds
}
