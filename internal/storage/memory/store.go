package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/customer-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-ledger/internal/models"
	"github.com/sheikh-saqib/customer-ledger/internal/storage"
)

// MemoryCustomerStore is an in-memory implementation of interfaces.CustomerStore.
// Everything lives in process memory and is lost on restart.
type MemoryCustomerStore struct {
	mu        sync.Mutex
	customers map[string]*models.Customer // keyed by CPF
	order     []string                    // CPFs in registration order
}

// NewMemoryCustomerStore creates an empty store
func NewMemoryCustomerStore() *MemoryCustomerStore {
	return &MemoryCustomerStore{
		customers: make(map[string]*models.Customer),
		order:     make([]string, 0),
	}
}

// CreateCustomer inserts the customer unless the CPF is already taken.
// The existence check and the insert happen under one lock.
func (m *MemoryCustomerStore) CreateCustomer(ctx context.Context, customer models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.customers[customer.CPF]; exists {
		return storage.ErrAlreadyExists
	}

	// store a private copy so the caller's slice can't alias ours
	c := cloneCustomer(customer)
	m.customers[customer.CPF] = &c
	m.order = append(m.order, customer.CPF)
	return nil
}

// GetCustomer returns a copy of the customer, statement included.
func (m *MemoryCustomerStore) GetCustomer(ctx context.Context, cpf string) (models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[cpf]
	if !ok {
		return models.Customer{}, storage.ErrNotFound
	}
	return cloneCustomer(*c), nil
}

// ListCustomers returns copies of all customers in registration order.
func (m *MemoryCustomerStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Customer, 0, len(m.order))
	for _, cpf := range m.order {
		out = append(out, cloneCustomer(*m.customers[cpf]))
	}
	return out, nil
}

func (m *MemoryCustomerStore) UpdateName(ctx context.Context, cpf, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[cpf]
	if !ok {
		return storage.ErrNotFound
	}
	// only the name changes; id and statement are untouched
	c.Name = name
	return nil
}

// DeleteCustomer removes the customer identified by cpf and nobody else.
func (m *MemoryCustomerStore) DeleteCustomer(ctx context.Context, cpf string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.customers[cpf]; !ok {
		return storage.ErrNotFound
	}
	delete(m.customers, cpf)

	// drop it from the registration order too
	for i, c := range m.order {
		if c == cpf {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryCustomerStore) AppendEntry(ctx context.Context, cpf string, entry models.StatementEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[cpf]
	if !ok {
		return storage.ErrNotFound
	}
	// entries are append-only
	c.Statement = append(c.Statement, entry)
	return nil
}

// GetEntries returns a copy of the customer's statement so callers can't
// modify internal state.
func (m *MemoryCustomerStore) GetEntries(ctx context.Context, cpf string) ([]models.StatementEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[cpf]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := make([]models.StatementEntry, len(c.Statement))
	copy(copied, c.Statement)
	return copied, nil
}

func cloneCustomer(c models.Customer) models.Customer {
	statement := make([]models.StatementEntry, len(c.Statement))
	copy(statement, c.Statement)
	c.Statement = statement
	return c
}

// Compile-time check: ensure MemoryCustomerStore implements CustomerStore interface
var _ interfaces.CustomerStore = (*MemoryCustomerStore)(nil)
