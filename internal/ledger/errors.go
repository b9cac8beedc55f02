package ledger

import "github.com/pkg/errors"

// Error is a domain failure. Kind is the stable name handed to API clients.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrCustomerNotFound   = &Error{Kind: "CustomerNotFound", Message: "customer not found"}
	ErrDuplicateCustomer  = &Error{Kind: "DuplicateCustomer", Message: "customer already exists"}
	ErrInsufficientFunds  = &Error{Kind: "InsufficientFunds", Message: "insufficient funds"}
	ErrNoStatementForDate = &Error{Kind: "NoStatementForDate", Message: "no statement found at date"}
	ErrInvalidAmount      = &Error{Kind: "InvalidAmount", Message: "amount must be greater than zero"}
	ErrInvalidRequest     = &Error{Kind: "InvalidRequest", Message: "invalid request"}

	// ErrEmptyStatement is a signal rather than a failure: the customer exists
	// but has nothing recorded yet.
	ErrEmptyStatement = &Error{Kind: "EmptyStatement", Message: "statement empty"}
)

// KindOf reports the domain kind of err, or "Internal" when err is not a
// domain error.
func KindOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return "Internal"
}
