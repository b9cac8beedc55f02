package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	interfaces "github.com/sheikh-saqib/customer-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-ledger/internal/models"
	"github.com/sheikh-saqib/customer-ledger/internal/storage"
)

const uniqueViolation = "23505"

// amount has no declared scale so entries keep the exact precision they were
// accepted with.
const schema = `
CREATE TABLE IF NOT EXISTS customers (
	cpf        TEXT PRIMARY KEY,
	id         UUID NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS statement_entries (
	seq          BIGSERIAL PRIMARY KEY,
	id           TEXT NOT NULL UNIQUE,
	customer_cpf TEXT NOT NULL REFERENCES customers(cpf) ON DELETE CASCADE,
	description  TEXT,
	amount       NUMERIC NOT NULL CHECK (amount > 0),
	type         TEXT NOT NULL CHECK (type IN ('credit', 'debit')),
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS statement_entries_customer_idx ON statement_entries (customer_cpf, seq);

-- tables created with a fixed scale rounded amounts on insert
ALTER TABLE statement_entries ALTER COLUMN amount TYPE NUMERIC;
`

type PostgresCustomerStore struct {
	db *sql.DB
}

func NewPostgresCustomerStore(db *sql.DB) *PostgresCustomerStore {
	return &PostgresCustomerStore{
		db: db,
	}
}

// Open connects to dsn with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}

// EnsureSchema creates the tables the store needs when they are missing.
func (p *PostgresCustomerStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "ensure schema")
}

func (p *PostgresCustomerStore) CreateCustomer(ctx context.Context, customer models.Customer) error {
	const query = `INSERT INTO customers (cpf, id, name) VALUES ($1, $2, $3)`

	_, err := p.db.ExecContext(ctx, query, customer.CPF, customer.ID, customer.Name)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return storage.ErrAlreadyExists
		}
		return errors.Wrapf(err, "insert customer %s", customer.CPF)
	}
	return nil
}

func (p *PostgresCustomerStore) GetCustomer(ctx context.Context, cpf string) (models.Customer, error) {
	const query = `SELECT cpf, id, name FROM customers WHERE cpf = $1`

	var c models.Customer
	err := p.db.QueryRowContext(ctx, query, cpf).Scan(&c.CPF, &c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return models.Customer{}, storage.ErrNotFound
	}
	if err != nil {
		return models.Customer{}, errors.Wrapf(err, "select customer %s", cpf)
	}

	c.Statement, err = p.entries(ctx, cpf)
	if err != nil {
		return models.Customer{}, err
	}
	return c, nil
}

func (p *PostgresCustomerStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	const query = `SELECT cpf, id, name FROM customers ORDER BY created_at, cpf`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "select customers")
	}
	defer rows.Close()

	customers := make([]models.Customer, 0)
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.CPF, &c.ID, &c.Name); err != nil {
			return nil, errors.Wrap(err, "scan customer")
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate customers")
	}

	for i := range customers {
		customers[i].Statement, err = p.entries(ctx, customers[i].CPF)
		if err != nil {
			return nil, err
		}
	}
	return customers, nil
}

func (p *PostgresCustomerStore) UpdateName(ctx context.Context, cpf, name string) error {
	const query = `UPDATE customers SET name = $2 WHERE cpf = $1`

	res, err := p.db.ExecContext(ctx, query, cpf, name)
	if err != nil {
		return errors.Wrapf(err, "update customer %s", cpf)
	}
	return expectOneRow(res)
}

// DeleteCustomer removes the customer row; its entries go with it through the
// ON DELETE CASCADE foreign key.
func (p *PostgresCustomerStore) DeleteCustomer(ctx context.Context, cpf string) error {
	const query = `DELETE FROM customers WHERE cpf = $1`

	res, err := p.db.ExecContext(ctx, query, cpf)
	if err != nil {
		return errors.Wrapf(err, "delete customer %s", cpf)
	}
	return expectOneRow(res)
}

func (p *PostgresCustomerStore) AppendEntry(ctx context.Context, cpf string, entry models.StatementEntry) error {
	const query = `INSERT INTO statement_entries (id, customer_cpf, description, amount, type, created_at)
	SELECT $1, cpf, $3, $4, $5, $6 FROM customers WHERE cpf = $2`

	description := sql.NullString{String: entry.Description, Valid: entry.Description != ""}
	res, err := p.db.ExecContext(ctx, query,
		entry.ID, cpf, description, entry.Amount, string(entry.Type), entry.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "insert entry for %s", cpf)
	}
	return expectOneRow(res)
}

func (p *PostgresCustomerStore) GetEntries(ctx context.Context, cpf string) ([]models.StatementEntry, error) {
	const query = `SELECT 1 FROM customers WHERE cpf = $1`

	var exists int
	err := p.db.QueryRowContext(ctx, query, cpf).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select customer %s", cpf)
	}
	return p.entries(ctx, cpf)
}

func (p *PostgresCustomerStore) entries(ctx context.Context, cpf string) ([]models.StatementEntry, error) {
	const query = `SELECT id, description, amount, type, created_at FROM statement_entries
	WHERE customer_cpf = $1 ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query, cpf)
	if err != nil {
		return nil, errors.Wrapf(err, "select entries for %s", cpf)
	}
	defer rows.Close()

	entries := make([]models.StatementEntry, 0)
	for rows.Next() {
		var (
			entry       models.StatementEntry
			description sql.NullString
			entryType   string
		)
		if err := rows.Scan(&entry.ID, &description, &entry.Amount, &entryType, &entry.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan entry")
		}
		entry.Description = description.String
		entry.Type = models.EntryType(entryType)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate entries")
	}
	return entries, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ interfaces.CustomerStore = (*PostgresCustomerStore)(nil)
