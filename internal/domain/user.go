package domain

import "time"

// User is the domain entity for an account.
// Email is stored normalized (trimmed, lowercase); Avatar is derived from it.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
