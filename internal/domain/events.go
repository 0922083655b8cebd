package domain

import "time"

const TransferCompletedEventType = "wallet.transfer.completed"

// TransferCompletedEvent is published through the outbox after a transfer commits.
type TransferCompletedEvent struct {
	TransferID  string    `json:"transfer_id"`
	FromOwnerID string    `json:"from_owner_id"`
	ToOwnerID   string    `json:"to_owner_id"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}
