package domain

// ============================================================
// Customer directory
// ============================================================

// Customer is a record of the customer directory (GET /customers).
type Customer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CustomerInput is the body of POST /customers and PUT /customers/{id}.
// Edits are full replacements: all three fields are always sent.
type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}
