package interfaces

import "net/http"

// CallerResolver extracts the identifier of the customer a request acts on.
// The header-based resolver is the default; a real authentication scheme can
// be dropped in behind the same method.
type CallerResolver interface {
	ResolveCaller(r *http.Request) (string, error)
}
