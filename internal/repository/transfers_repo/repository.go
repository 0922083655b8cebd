package transfers_repo

import (
	"context"

	"wallet/internal/domain"
)

// TransferRepository records committed transfers. The (from_owner_id,
// idempotency_key) pair is unique, so inserting a transfer doubles as claiming
// the key: a concurrent duplicate loses with ErrTransferAlreadyRecorded and
// its whole transaction, balance mutations included, rolls back.
type TransferRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, transfer *domain.Transfer) error
	GetByIdempotencyKeyTx(ctx context.Context, querier domain.Querier, fromOwnerID, key string) (*domain.Transfer, error)
}
