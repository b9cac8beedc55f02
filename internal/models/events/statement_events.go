package events

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CustomerRegistered = "customer.registered"
	CustomerRenamed    = "customer.renamed"
	CustomerRemoved    = "customer.removed"
	StatementCredited  = "statement.credited"
	StatementDebited   = "statement.debited"
)

// CustomerChanged is emitted after a registry mutation is committed.
type CustomerChanged struct {
	Type       string    `json:"type"`
	CustomerID string    `json:"customer_id"`
	CPF        string    `json:"cpf"`
	Name       string    `json:"name,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EntryRecorded is emitted after a deposit or withdrawal is appended to a statement.
type EntryRecorded struct {
	Type         string          `json:"type"`
	EntryID      string          `json:"entry_id"`
	CPF          string          `json:"cpf"`
	Description  string          `json:"description,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Key returns the partition key for the event.
func (e CustomerChanged) Key() string { return e.CPF }

// Key returns the partition key for the event.
func (e EntryRecorded) Key() string { return e.CPF }
