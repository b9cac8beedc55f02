package hrest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/customer-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-ledger/internal/ledger"
	"github.com/sheikh-saqib/customer-ledger/internal/models"
)

// LedgerService is what the handlers need from the ledger.
type LedgerService interface {
	Register(ctx context.Context, cpf, name string) (models.Customer, error)
	Find(ctx context.Context, cpf string) (models.Customer, error)
	Rename(ctx context.Context, cpf, newName string) error
	Remove(ctx context.Context, cpf string) ([]models.Customer, error)
	Deposit(ctx context.Context, cpf, description string, amount decimal.Decimal) (models.StatementEntry, error)
	Withdraw(ctx context.Context, cpf string, amount decimal.Decimal) (models.StatementEntry, error)
	StatementByDate(ctx context.Context, cpf, date string) ([]models.StatementEntry, error)
}

type LedgerRestHandler struct {
	ledger   LedgerService
	resolver interfaces.CallerResolver
	logger   *zap.Logger
}

func NewLedgerRestHandler(l LedgerService, resolver interfaces.CallerResolver, logger *zap.Logger) *LedgerRestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerRestHandler{ledger: l, resolver: resolver, logger: logger}
}

type customerCtxKey struct{}

// RequireCustomer resolves the caller and loads the customer once per request.
// Unknown or missing identifiers stop the request with CustomerNotFound.
func (h *LedgerRestHandler) RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cpf, err := h.resolver.ResolveCaller(r)
		if err != nil {
			h.writeError(w, r, ledger.ErrCustomerNotFound)
			return
		}

		customer, err := h.ledger.Find(r.Context(), cpf)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), customerCtxKey{}, customer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func customerFrom(ctx context.Context) models.Customer {
	c, _ := ctx.Value(customerCtxKey{}).(models.Customer)
	return c
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.WithMessage(ledger.ErrInvalidRequest, "malformed JSON body")
	}
	return nil
}

func (h *LedgerRestHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CPF  string `json:"cpf"`
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.ledger.Register(r.Context(), req.CPF, req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *LedgerRestHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, customerFrom(r.Context()))
}

func (h *LedgerRestHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.ledger.Rename(r.Context(), customerFrom(r.Context()).CPF, req.NewName); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *LedgerRestHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.ledger.Remove(r.Context(), customerFrom(r.Context()).CPF)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, remaining)
}

func (h *LedgerRestHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	statement, err := ledger.StatementOf(customerFrom(r.Context()))
	if errors.Is(err, ledger.ErrEmptyStatement) {
		writeJSON(w, http.StatusOK, messageBody{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

func (h *LedgerRestHandler) GetStatementByDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, r, errors.WithMessage(ledger.ErrInvalidRequest, "date query parameter is required"))
		return
	}

	statement, err := h.ledger.StatementByDate(r.Context(), customerFrom(r.Context()).CPF, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statement)
}

func (h *LedgerRestHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.ledger.Deposit(r.Context(), customerFrom(r.Context()).CPF, req.Description, req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *LedgerRestHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.ledger.Withdraw(r.Context(), customerFrom(r.Context()).CPF, req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// GetBalance writes the balance as a bare JSON number.
func (h *LedgerRestHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance := ledger.Balance(customerFrom(r.Context()).Statement)
	writeJSON(w, http.StatusOK, json.Number(balance.String()))
}

func (h *LedgerRestHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterRoutes mounts the account, statement and balance endpoints on r.
func (h *LedgerRestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/account", h.CreateAccount)

	r.Group(func(cr chi.Router) {
		cr.Use(h.RequireCustomer)

		cr.Get("/account", h.GetAccount)
		cr.Put("/account", h.UpdateAccount)
		cr.Delete("/account", h.DeleteAccount)

		cr.Get("/statement", h.GetStatement)
		cr.Get("/statement/date", h.GetStatementByDate)

		cr.Post("/deposit", h.Deposit)
		cr.Post("/withdraw", h.Withdraw)

		cr.Get("/balance", h.GetBalance)
	})
}
