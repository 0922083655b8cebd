package domain

import (
	"errors"
	"time"
)

var ErrTransferNotFound = errors.New("transfer not found")
var ErrTransferAlreadyRecorded = errors.New("transfer already recorded for idempotency key")

type TransferStatus string

const (
	TransferStatusCompleted TransferStatus = "COMPLETED"
)

// Transfer is the durable record of a committed transfer. It is written in the
// same transaction as the balance mutations, so a recorded transfer implies the
// money moved and vice versa. IdempotencyKey is empty when the caller supplied
// none; RequestHash detects a key being reused with a different payload.
type Transfer struct {
	ID               string
	FromOwnerID      string
	ToOwnerID        string
	FromAccountID    string
	ToAccountID      string
	AmountCents      int64
	FromBalanceCents int64
	ToBalanceCents   int64
	Status           TransferStatus
	IdempotencyKey   string
	RequestHash      string
	CreatedAt        time.Time
}
