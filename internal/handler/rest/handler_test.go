package hrest_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	hrest "github.com/sheikh-saqib/customer-ledger/internal/handler/rest"
	"github.com/sheikh-saqib/customer-ledger/internal/ledger"
	"github.com/sheikh-saqib/customer-ledger/internal/models"
	"github.com/sheikh-saqib/customer-ledger/internal/storage/memory"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	l := ledger.NewLedger(memory.NewMemoryCustomerStore(),
		ledger.WithClock(func() time.Time { return fixedNow }),
		ledger.WithLocation(time.UTC),
	)
	h := hrest.NewLedgerRestHandler(l, hrest.NewHeaderResolver("cpf"), nil)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, cpf string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cpf != "" {
		req.Header.Set("cpf", cpf)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type errorBody struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func requireError(t *testing.T, resp *http.Response, kind string) {
	t.Helper()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, kind, decodeBody[errorBody](t, resp).Kind)
}

func createAccount(t *testing.T, ts *httptest.Server, cpf, name string) {
	t.Helper()
	resp := do(t, ts, http.MethodPost, "/account", "", map[string]string{"cpf": cpf, "name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreateAndGetAccount(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "123.456.789-00", "Alice")

	resp := do(t, ts, http.MethodGet, "/account", "123.456.789-00", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	c := decodeBody[models.Customer](t, resp)
	require.Equal(t, "123.456.789-00", c.CPF)
	require.Equal(t, "Alice", c.Name)
	require.NotEmpty(t, c.ID)
	require.Empty(t, c.Statement)
}

func TestCreateDuplicateAccount(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "111", "Alice")

	resp := do(t, ts, http.MethodPost, "/account", "", map[string]string{"cpf": "111", "name": "Bob"})
	requireError(t, resp, "DuplicateCustomer")

	c := decodeBody[models.Customer](t, do(t, ts, http.MethodGet, "/account", "111", nil))
	require.Equal(t, "Alice", c.Name)
}

func TestCreateAccountBadBody(t *testing.T) {
	ts := newServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/account", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	requireError(t, resp, "InvalidRequest")

	requireError(t, do(t, ts, http.MethodPost, "/account", "", map[string]string{"name": "no cpf"}), "InvalidRequest")
}

func TestUnknownOrMissingCustomer(t *testing.T) {
	ts := newServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/account"},
		{http.MethodPut, "/account"},
		{http.MethodDelete, "/account"},
		{http.MethodGet, "/statement"},
		{http.MethodGet, "/statement/date?date=2024-03-10"},
		{http.MethodPost, "/deposit"},
		{http.MethodPost, "/withdraw"},
		{http.MethodGet, "/balance"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			requireError(t, do(t, ts, rt.method, rt.path, "ghost", map[string]any{}), "CustomerNotFound")
			requireError(t, do(t, ts, rt.method, rt.path, "", map[string]any{}), "CustomerNotFound")
		})
	}
}

func TestUpdateAccount(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "111", "Alice")

	resp := do(t, ts, http.MethodPut, "/account", "111", map[string]string{"new_name": "Alicia"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	c := decodeBody[models.Customer](t, do(t, ts, http.MethodGet, "/account", "111", nil))
	require.Equal(t, "Alicia", c.Name)

	requireError(t, do(t, ts, http.MethodPut, "/account", "111", map[string]string{"new_name": ""}), "InvalidRequest")
}

func TestDeleteAccountReturnsRemaining(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "1", "A")
	createAccount(t, ts, "2", "B")

	resp := do(t, ts, http.MethodDelete, "/account", "1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	remaining := decodeBody[[]models.Customer](t, resp)
	require.Len(t, remaining, 1)
	require.Equal(t, "2", remaining[0].CPF)

	requireError(t, do(t, ts, http.MethodGet, "/account", "1", nil), "CustomerNotFound")
}

func TestDepositWithdrawBalance(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "111", "Alice")

	resp := do(t, ts, http.MethodPost, "/deposit", "111", map[string]any{"description": "salary", "amount": 100})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	balance := decodeBody[decimal.Decimal](t, do(t, ts, http.MethodGet, "/balance", "111", nil))
	require.True(t, balance.Equal(decimal.NewFromInt(100)))

	requireError(t, do(t, ts, http.MethodPost, "/withdraw", "111", map[string]any{"amount": 150}), "InsufficientFunds")

	balance = decodeBody[decimal.Decimal](t, do(t, ts, http.MethodGet, "/balance", "111", nil))
	require.True(t, balance.Equal(decimal.NewFromInt(100)))

	resp = do(t, ts, http.MethodPost, "/withdraw", "111", map[string]any{"amount": 100})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	balance = decodeBody[decimal.Decimal](t, do(t, ts, http.MethodGet, "/balance", "111", nil))
	require.True(t, balance.IsZero())
}

func TestBalanceIsJSONNumber(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "111", "Alice")

	readBalance := func() string {
		resp := do(t, ts, http.MethodGet, "/balance", "111", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(raw)
	}
	require.Equal(t, "0\n", readBalance())

	do(t, ts, http.MethodPost, "/deposit", "111", map[string]any{"amount": 100})
	require.Equal(t, "100\n", readBalance())

	do(t, ts, http.MethodPost, "/deposit", "111", map[string]any{"amount": "0.25"})
	require.Equal(t, "100.25\n", readBalance())
}

func TestDepositInvalidAmount(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "111", "Alice")

	requireError(t, do(t, ts, http.MethodPost, "/deposit", "111", map[string]any{"amount": -1}), "InvalidAmount")
	requireError(t, do(t, ts, http.MethodPost, "/deposit", "111", map[string]any{"description": "no amount"}), "InvalidAmount")
	requireError(t, do(t, ts, http.MethodPost, "/withdraw", "111", map[string]any{"amount": 0}), "InvalidAmount")
}

func TestDepositAcceptsStringAmount(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "111", "Alice")

	resp := do(t, ts, http.MethodPost, "/deposit", "111", map[string]any{"amount": "10.25"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	balance := decodeBody[decimal.Decimal](t, do(t, ts, http.MethodGet, "/balance", "111", nil))
	require.True(t, balance.Equal(decimal.RequireFromString("10.25")))
}

func TestStatement(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "111", "Alice")

	resp := do(t, ts, http.MethodGet, "/statement", "111", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "statement empty", decodeBody[map[string]string](t, resp)["message"])

	do(t, ts, http.MethodPost, "/deposit", "111", map[string]any{"description": "salary", "amount": 100})
	do(t, ts, http.MethodPost, "/withdraw", "111", map[string]any{"amount": 30})

	resp = do(t, ts, http.MethodGet, "/statement", "111", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statement := decodeBody[[]models.StatementEntry](t, resp)
	require.Len(t, statement, 2)
	require.Equal(t, models.EntryCredit, statement[0].Type)
	require.Equal(t, "salary", statement[0].Description)
	require.True(t, statement[0].CreatedAt.Equal(fixedNow))
	require.Equal(t, models.EntryDebit, statement[1].Type)
	require.True(t, statement[1].Amount.Equal(decimal.NewFromInt(30)))
}

func TestStatementByDate(t *testing.T) {
	ts := newServer(t)
	createAccount(t, ts, "111", "Alice")
	do(t, ts, http.MethodPost, "/deposit", "111", map[string]any{"amount": 5})

	resp := do(t, ts, http.MethodGet, "/statement/date?date=2024-03-10", "111", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeBody[[]models.StatementEntry](t, resp), 1)

	requireError(t, do(t, ts, http.MethodGet, "/statement/date?date=2024-03-11", "111", nil), "NoStatementForDate")
	requireError(t, do(t, ts, http.MethodGet, "/statement/date", "111", nil), "InvalidRequest")
	requireError(t, do(t, ts, http.MethodGet, "/statement/date?date=yesterday", "111", nil), "InvalidRequest")
}

func TestHealth(t *testing.T) {
	ts := newServer(t)
	resp := do(t, ts, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decodeBody[map[string]string](t, resp)["status"])
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newServer(t)
	resp := do(t, ts, http.MethodPatch, "/account", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHeaderResolver(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	res := hrest.NewHeaderResolver("X-Customer")

	_, err := res.ResolveCaller(r)
	require.Error(t, err)

	r.Header.Set("X-Customer", " 111 ")
	cpf, err := res.ResolveCaller(r)
	require.NoError(t, err)
	require.Equal(t, "111", cpf)
}
