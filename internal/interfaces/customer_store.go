package interfaces

import (
	"context"

	"github.com/sheikh-saqib/customer-ledger/internal/models"
)

// CustomerStore persists customers together with their statements.
// Implementations return storage.ErrNotFound for unknown identifiers and
// storage.ErrAlreadyExists when CreateCustomer hits a taken CPF.
type CustomerStore interface {
	CreateCustomer(ctx context.Context, customer models.Customer) error
	GetCustomer(ctx context.Context, cpf string) (models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	UpdateName(ctx context.Context, cpf, name string) error
	DeleteCustomer(ctx context.Context, cpf string) error
	AppendEntry(ctx context.Context, cpf string, entry models.StatementEntry) error
	GetEntries(ctx context.Context, cpf string) ([]models.StatementEntry, error)
}
