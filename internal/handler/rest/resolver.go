package hrest

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	interfaces "github.com/sheikh-saqib/customer-ledger/internal/interfaces"
)

var errNoCaller = errors.New("lookup header missing")

// HeaderResolver reads the customer identifier from a request header.
type HeaderResolver struct {
	Header string
}

func NewHeaderResolver(header string) HeaderResolver {
	return HeaderResolver{Header: header}
}

func (h HeaderResolver) ResolveCaller(r *http.Request) (string, error) {
	v := strings.TrimSpace(r.Header.Get(h.Header))
	if v == "" {
		return "", errNoCaller
	}
	return v, nil
}

var _ interfaces.CallerResolver = HeaderResolver{}
