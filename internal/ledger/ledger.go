package ledger

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	eventpub "github.com/sheikh-saqib/customer-ledger/internal/events"
	interfaces "github.com/sheikh-saqib/customer-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-ledger/internal/models"
	"github.com/sheikh-saqib/customer-ledger/internal/models/events"
	"github.com/sheikh-saqib/customer-ledger/internal/storage"
)

// DateLayout is the calendar-day format accepted by StatementByDate.
const DateLayout = "2006-01-02"

// Ledger is the customer registry plus the accounting on top of each
// customer's statement. Every mutation of one customer runs under that
// customer's mutex, so find-then-write sequences can't interleave. The
// mutation's event is published before the mutex is released, so a
// customer's events leave in commit order.
type Ledger struct {
	store     interfaces.CustomerStore
	publisher interfaces.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location

	// One mutex per CPF. Entries outlive Remove so a goroutine still queued on
	// a removed customer's mutex can't race a re-registration of the same CPF.
	muMap map[string]*sync.Mutex
	mapMu sync.Mutex // protects muMap

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

type Option func(*Ledger)

// WithPublisher sets where committed changes are announced.
func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock replaces time.Now as the source of entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the location whose calendar days StatementByDate uses.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) { l.loc = loc }
}

func NewLedger(store interfaces.CustomerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		publisher: eventpub.Nop{},
		logger:    zap.NewNop(),
		now:       time.Now,
		loc:       time.Local,
		muMap:     make(map[string]*sync.Mutex),
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.publisher == nil {
		l.publisher = eventpub.Nop{}
	}
	if l.loc == nil {
		l.loc = time.Local
	}
	return l
}

func (l *Ledger) getCustomerLock(cpf string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	// first touch of a cpf creates its mutex
	if _, exists := l.muMap[cpf]; !exists {
		l.muMap[cpf] = &sync.Mutex{}
	}
	return l.muMap[cpf]
}

func (l *Ledger) newEntryID(at time.Time) string {
	l.entropyMu.Lock()
	defer l.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), l.entropy).String()
}

// Register adds a customer under cpf. A taken cpf is rejected and nothing is
// written.
func (l *Ledger) Register(ctx context.Context, cpf, name string) (models.Customer, error) {
	cpf = strings.TrimSpace(cpf)
	if cpf == "" || strings.TrimSpace(name) == "" {
		return models.Customer{}, ErrInvalidRequest
	}

	customer := models.Customer{
		CPF:       cpf,
		Name:      name,
		ID:        uuid.New().String(),
		Statement: []models.StatementEntry{},
	}

	mu := l.getCustomerLock(cpf)
	mu.Lock()
	defer mu.Unlock()

	// the store rejects a taken cpf atomically
	if err := l.store.CreateCustomer(ctx, customer); err != nil {
		return models.Customer{}, l.translate(err, "register customer")
	}

	l.logger.Info("customer registered", zap.String("cpf", cpf), zap.String("id", customer.ID))
	l.publish(ctx, events.CustomerChanged{
		Type:       events.CustomerRegistered,
		CustomerID: customer.ID,
		CPF:        cpf,
		Name:       name,
		OccurredAt: l.now(),
	})
	return customer, nil
}

// Find looks a customer up by cpf.
func (l *Ledger) Find(ctx context.Context, cpf string) (models.Customer, error) {
	customer, err := l.store.GetCustomer(ctx, cpf)
	if err != nil {
		return models.Customer{}, l.translate(err, "find customer")
	}
	return customer, nil
}

// List returns every registered customer.
func (l *Ledger) List(ctx context.Context) ([]models.Customer, error) {
	customers, err := l.store.ListCustomers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	return customers, nil
}

// Rename changes the display name; the cpf and id stay put.
func (l *Ledger) Rename(ctx context.Context, cpf, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return ErrInvalidRequest
	}

	mu := l.getCustomerLock(cpf)
	mu.Lock()
	defer mu.Unlock()

	// load first: the event carries the customer id
	customer, err := l.store.GetCustomer(ctx, cpf)
	if err != nil {
		return l.translate(err, "rename customer")
	}
	if err := l.store.UpdateName(ctx, cpf, newName); err != nil {
		return l.translate(err, "rename customer")
	}

	l.publish(ctx, events.CustomerChanged{
		Type:       events.CustomerRenamed,
		CustomerID: customer.ID,
		CPF:        cpf,
		Name:       newName,
		OccurredAt: l.now(),
	})
	return nil
}

// Remove deletes the customer identified by cpf, statement included, and
// returns the customers that are left.
func (l *Ledger) Remove(ctx context.Context, cpf string) ([]models.Customer, error) {
	mu := l.getCustomerLock(cpf)
	mu.Lock()
	defer mu.Unlock()

	customer, err := l.store.GetCustomer(ctx, cpf)
	if err != nil {
		return nil, l.translate(err, "remove customer")
	}
	// statement entries go with the customer
	if err := l.store.DeleteCustomer(ctx, cpf); err != nil {
		return nil, l.translate(err, "remove customer")
	}

	l.logger.Info("customer removed", zap.String("cpf", cpf))
	l.publish(ctx, events.CustomerChanged{
		Type:       events.CustomerRemoved,
		CustomerID: customer.ID,
		CPF:        cpf,
		OccurredAt: l.now(),
	})
	return l.List(ctx)
}

// Deposit appends a credit entry to the customer's statement.
func (l *Ledger) Deposit(ctx context.Context, cpf, description string, amount decimal.Decimal) (models.StatementEntry, error) {
	if !amount.IsPositive() {
		return models.StatementEntry{}, ErrInvalidAmount
	}

	mu := l.getCustomerLock(cpf)
	mu.Lock()
	defer mu.Unlock()

	entry, balance, err := l.appendEntry(ctx, cpf, description, amount, models.EntryCredit)
	if err != nil {
		return models.StatementEntry{}, err
	}

	l.publish(ctx, events.EntryRecorded{
		Type:         events.StatementCredited,
		EntryID:      entry.ID,
		CPF:          cpf,
		Description:  description,
		Amount:       amount,
		BalanceAfter: balance,
		OccurredAt:   entry.CreatedAt,
	})
	return entry, nil
}

// Withdraw appends a debit entry when the current balance covers amount.
// When it doesn't, ErrInsufficientFunds is returned and the statement is left
// untouched.
func (l *Ledger) Withdraw(ctx context.Context, cpf string, amount decimal.Decimal) (models.StatementEntry, error) {
	if !amount.IsPositive() {
		return models.StatementEntry{}, ErrInvalidAmount
	}

	mu := l.getCustomerLock(cpf)
	mu.Lock()
	defer mu.Unlock()

	entry, balance, err := l.appendEntry(ctx, cpf, "", amount, models.EntryDebit)
	if err != nil {
		return models.StatementEntry{}, err
	}

	l.publish(ctx, events.EntryRecorded{
		Type:         events.StatementDebited,
		EntryID:      entry.ID,
		CPF:          cpf,
		Amount:       amount,
		BalanceAfter: balance,
		OccurredAt:   entry.CreatedAt,
	})
	return entry, nil
}

// appendEntry must be called with the customer's lock held. It returns the
// recorded entry and the balance after it.
func (l *Ledger) appendEntry(ctx context.Context, cpf, description string, amount decimal.Decimal, entryType models.EntryType) (models.StatementEntry, decimal.Decimal, error) {
	statement, err := l.store.GetEntries(ctx, cpf)
	if err != nil {
		return models.StatementEntry{}, decimal.Zero, l.translate(err, "load statement")
	}

	// a debit must be covered by the balance as it stands now
	balance := Balance(statement)
	if entryType == models.EntryDebit && balance.LessThan(amount) {
		l.logger.Debug("withdrawal rejected",
			zap.String("cpf", cpf),
			zap.String("amount", amount.String()),
			zap.String("balance", balance.String()))
		return models.StatementEntry{}, decimal.Zero, ErrInsufficientFunds
	}

	now := l.now()
	entry := models.StatementEntry{
		ID:          l.newEntryID(now),
		Description: description,
		Amount:      amount,
		CreatedAt:   now,
		Type:        entryType,
	}
	// nothing is written until the checks above pass
	if err := l.store.AppendEntry(ctx, cpf, entry); err != nil {
		return models.StatementEntry{}, decimal.Zero, l.translate(err, "append entry")
	}

	return entry, Balance(append(statement, entry)), nil
}

// Statement returns every entry for cpf, or ErrEmptyStatement when there is
// none yet.
func (l *Ledger) Statement(ctx context.Context, cpf string) ([]models.StatementEntry, error) {
	customer, err := l.Find(ctx, cpf)
	if err != nil {
		return nil, err
	}
	return StatementOf(customer)
}

// StatementByDate returns the entries recorded on date (YYYY-MM-DD) in the
// ledger's location.
func (l *Ledger) StatementByDate(ctx context.Context, cpf, date string) ([]models.StatementEntry, error) {
	customer, err := l.Find(ctx, cpf)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), l.loc)
	if err != nil {
		return nil, errors.WithMessage(ErrInvalidRequest, "date must be YYYY-MM-DD")
	}
	return FilterByDate(customer.Statement, day, l.loc)
}

// BalanceOf computes the current balance of cpf.
func (l *Ledger) BalanceOf(ctx context.Context, cpf string) (decimal.Decimal, error) {
	customer, err := l.Find(ctx, cpf)
	if err != nil {
		return decimal.Zero, err
	}
	return Balance(customer.Statement), nil
}

// translate maps store sentinels onto domain errors and wraps anything else.
func (l *Ledger) translate(err error, op string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrCustomerNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrDuplicateCustomer
	default:
		return errors.Wrap(err, op)
	}
}

// publish never fails the caller: the change is already committed. Callers
// holding a customer lock keep it across publish to preserve event order.
func (l *Ledger) publish(ctx context.Context, event interfaces.Event) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.logger.Warn("failed to publish event", zap.String("key", event.Key()), zap.Error(err))
	}
}
