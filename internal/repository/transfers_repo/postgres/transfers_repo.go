package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"wallet/internal/domain"
)

type TransferRepository struct{}

func NewTransferRepository() *TransferRepository {
	return &TransferRepository{}
}

func (r *TransferRepository) CreateTx(ctx context.Context, querier domain.Querier, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (id, from_owner_id, to_owner_id, from_account_id, to_account_id,
			amount_cents, from_balance_cents, to_balance_cents, status, idempotency_key, request_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)
	`
	_, err := querier.ExecContext(ctx, query,
		transfer.ID,
		transfer.FromOwnerID,
		transfer.ToOwnerID,
		transfer.FromAccountID,
		transfer.ToAccountID,
		transfer.AmountCents,
		transfer.FromBalanceCents,
		transfer.ToBalanceCents,
		transfer.Status,
		transfer.IdempotencyKey,
		transfer.RequestHash,
		transfer.CreatedAt,
	)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return domain.ErrTransferAlreadyRecorded
		}
		return fmt.Errorf("failed to create transfer record: %w", err)
	}
	return nil
}

func (r *TransferRepository) GetByIdempotencyKeyTx(ctx context.Context, querier domain.Querier, fromOwnerID, key string) (*domain.Transfer, error) {
	query := `
		SELECT id, from_owner_id, to_owner_id, from_account_id, to_account_id,
			amount_cents, from_balance_cents, to_balance_cents, status, COALESCE(idempotency_key, ''), request_hash, created_at
		FROM transfers
		WHERE from_owner_id = $1 AND idempotency_key = $2
	`
	transfer := &domain.Transfer{}
	err := querier.QueryRowContext(ctx, query, fromOwnerID, key).Scan(
		&transfer.ID,
		&transfer.FromOwnerID,
		&transfer.ToOwnerID,
		&transfer.FromAccountID,
		&transfer.ToAccountID,
		&transfer.AmountCents,
		&transfer.FromBalanceCents,
		&transfer.ToBalanceCents,
		&transfer.Status,
		&transfer.IdempotencyKey,
		&transfer.RequestHash,
		&transfer.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer by idempotency key: %w", err)
	}
	return transfer, nil
}
