package models

// Operator is an API user allowed to inspect the ledger and trigger runs.
type Operator struct {
	Name         string `json:"name"`
	PasswordHash string `json:"-"` // bcrypt, never exposed
}
