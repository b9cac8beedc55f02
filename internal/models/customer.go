package models

// Customer is a registered account holder. CPF is the lookup key and never
// changes after registration; the statement belongs to the customer and is
// dropped together with it.
type Customer struct {
	CPF       string           `json:"cpf"`
	Name      string           `json:"name"`
	ID        string           `json:"id"`
	Statement []StatementEntry `json:"statement"`
}
