package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType tells whether a statement entry adds or removes funds
type EntryType string

const (
	EntryCredit EntryType = "credit"
	EntryDebit  EntryType = "debit"
)

// StatementEntry represents a single credit or debit recorded for a customer.
// Entries are append-only; insertion order is chronological order.
type StatementEntry struct {
	ID          string          `json:"id"`                    // ULID, sortable by creation time
	Description string          `json:"description,omitempty"` // empty for debits
	Amount      decimal.Decimal `json:"amount"`                // always positive
	CreatedAt   time.Time       `json:"created_at"`            // server clock at insertion
	Type        EntryType       `json:"type"`
}
