// Package models defines the core data structures for accounts and journal entries.
package models

import "errors"

var (
	// ErrNotFound is returned by repositories when no record matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an account with the same email already exists.
	ErrDuplicate = errors.New("duplicate entry")
)

// Account represents a registered user with credentials.
type Account struct {
	// ID is the unique identifier assigned by the store on creation.
	ID string
	// Email is the unique business key, stored exactly as supplied.
	Email string
	// PasswordHash is the encoded hash of the account secret.
	PasswordHash string
	// ResetPin is the one-time recovery PIN. Empty when no recovery is in flight.
	ResetPin string
}

// Profile is the public view of an account returned to its owner.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Entry is a single journal entry ("memory") owned by an account.
type Entry struct {
	// ID is the unique identifier for the entry.
	ID string `json:"id"`
	// UserID is the owning account.
	UserID string `json:"userid"`
	// Title is the entry headline.
	Title string `json:"title"`
	// Date is the user-supplied date of the memory, kept as free text.
	Date string `json:"date"`
	// Memory is the entry body.
	Memory string `json:"memory"`
}
