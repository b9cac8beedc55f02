package ledger

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/customer-ledger/internal/models"
)

// Balance folds the statement in insertion order. Credits always add. A debit
// only subtracts while the running balance is positive and covers it; a debit
// that fails the guard stays on the statement without moving the balance.
func Balance(statement []models.StatementEntry) decimal.Decimal {
	balance := decimal.Zero

	for _, entry := range statement {
		switch entry.Type {
		case models.EntryCredit:
			balance = balance.Add(entry.Amount)
		case models.EntryDebit:
			if balance.IsPositive() && balance.GreaterThanOrEqual(entry.Amount) {
				balance = balance.Sub(entry.Amount)
			}
		}
	}
	return balance
}

// FilterByDate keeps the entries created on the same calendar day as day,
// both read in loc. Time of day is ignored.
func FilterByDate(statement []models.StatementEntry, day time.Time, loc *time.Location) ([]models.StatementEntry, error) {
	y, m, d := day.In(loc).Date()

	filtered := make([]models.StatementEntry, 0)
	for _, entry := range statement {
		ey, em, ed := entry.CreatedAt.In(loc).Date()
		if ey == y && em == m && ed == d {
			filtered = append(filtered, entry)
		}
	}

	if len(filtered) == 0 {
		return nil, errors.WithMessagef(ErrNoStatementForDate, "%s", day.In(loc).Format(DateLayout))
	}
	return filtered, nil
}

// StatementOf returns the customer's entries or ErrEmptyStatement.
func StatementOf(customer models.Customer) ([]models.StatementEntry, error) {
	if len(customer.Statement) == 0 {
		return nil, ErrEmptyStatement
	}
	return customer.Statement, nil
}
