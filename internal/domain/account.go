package domain

import (
	"errors"
	"time"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountAlreadyExists = errors.New("account already exists")
var ErrPreconditionFailed = errors.New("balance precondition failed")

// Account holds the current balance for exactly one user. Balances are stored
// in integer minor units (cents) to avoid floating-point drift.
type Account struct {
	ID           string
	UserID       string
	BalanceCents int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
