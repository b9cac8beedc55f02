package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/customer-ledger/internal/models"
)

func credit(amount int64, at time.Time) models.StatementEntry {
	return models.StatementEntry{Amount: decimal.NewFromInt(amount), Type: models.EntryCredit, CreatedAt: at}
}

func debit(amount int64, at time.Time) models.StatementEntry {
	return models.StatementEntry{Amount: decimal.NewFromInt(amount), Type: models.EntryDebit, CreatedAt: at}
}

func requireAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got)
}

func TestBalance_CreditsSumInAnyOrder(t *testing.T) {
	now := time.Now()
	amounts := []int64{10, 250, 3, 47, 90}

	forward := make([]models.StatementEntry, 0, len(amounts))
	backward := make([]models.StatementEntry, 0, len(amounts))
	for i := range amounts {
		forward = append(forward, credit(amounts[i], now))
		backward = append(backward, credit(amounts[len(amounts)-1-i], now))
	}

	requireAmount(t, 400, Balance(forward))
	requireAmount(t, 400, Balance(backward))
}

func TestBalance_EmptyStatementIsZero(t *testing.T) {
	require.True(t, Balance(nil).IsZero())
}

func TestBalance_DebitGuard(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		statement []models.StatementEntry
		want      int64
	}{
		{"covered debit", []models.StatementEntry{credit(100, now), debit(40, now)}, 60},
		{"exact debit", []models.StatementEntry{credit(100, now), debit(100, now)}, 0},
		{"debit larger than balance is ignored", []models.StatementEntry{credit(100, now), debit(150, now)}, 100},
		{"debit on zero balance is ignored", []models.StatementEntry{debit(10, now), credit(30, now)}, 30},
		{"ignored debit does not count later", []models.StatementEntry{credit(10, now), debit(20, now), credit(15, now), debit(20, now)}, 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			requireAmount(t, tc.want, Balance(tc.statement))
		})
	}
}

func TestBalance_Fractional(t *testing.T) {
	statement := []models.StatementEntry{
		{Amount: decimal.RequireFromString("0.1"), Type: models.EntryCredit},
		{Amount: decimal.RequireFromString("0.2"), Type: models.EntryCredit},
	}
	require.True(t, Balance(statement).Equal(decimal.RequireFromString("0.3")))
}

func TestFilterByDate(t *testing.T) {
	loc := time.UTC
	day1 := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	statement := []models.StatementEntry{
		credit(1, day1.Add(30*time.Minute)),
		credit(2, day1.Add(23*time.Hour+59*time.Minute)),
		credit(3, day1.Add(24*time.Hour)),
		debit(1, day1.Add(-time.Second)),
	}

	got, err := FilterByDate(statement, day1.Add(15*time.Hour), loc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	requireAmount(t, 1, got[0].Amount)
	requireAmount(t, 2, got[1].Amount)

	_, err = FilterByDate(statement, day1.AddDate(0, 0, 5), loc)
	require.ErrorIs(t, err, ErrNoStatementForDate)
	require.Contains(t, err.Error(), "2024-03-15")
	require.Contains(t, err.Error(), ErrNoStatementForDate.Message)
}

func TestFilterByDate_UsesLocationCalendarDay(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	// 01:00 UTC on the 11th is still the 10th in BRT
	entry := credit(5, time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC))

	got, err := FilterByDate([]models.StatementEntry{entry}, time.Date(2024, 3, 10, 0, 0, 0, 0, saoPaulo), saoPaulo)
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = FilterByDate([]models.StatementEntry{entry}, time.Date(2024, 3, 11, 0, 0, 0, 0, saoPaulo), saoPaulo)
	require.ErrorIs(t, err, ErrNoStatementForDate)
}

func TestStatementOf(t *testing.T) {
	_, err := StatementOf(models.Customer{CPF: "1"})
	require.ErrorIs(t, err, ErrEmptyStatement)

	entries, err := StatementOf(models.Customer{CPF: "1", Statement: []models.StatementEntry{credit(1, time.Now())}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestKindOf(t *testing.T) {
	require.Equal(t, "InsufficientFunds", KindOf(ErrInsufficientFunds))
	require.Equal(t, "NoStatementForDate", KindOf(func() error {
		_, err := FilterByDate(nil, time.Now(), time.UTC)
		return err
	}()))
	require.Equal(t, "Internal", KindOf(assert.AnError))
}
