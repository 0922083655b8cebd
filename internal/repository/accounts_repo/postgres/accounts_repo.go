package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"wallet/internal/domain"
	"wallet/internal/repository/accounts_repo"
)

type AccountRepository struct{}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

func (r *AccountRepository) CreateAccountTx(ctx context.Context, querier domain.Querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, balance_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := querier.ExecContext(ctx, query,
		account.ID, account.UserID, account.BalanceCents, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return domain.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account for user %s: %w", account.UserID, err)
	}
	return nil
}

func (r *AccountRepository) GetAccountForUserTx(ctx context.Context, querier domain.Querier, userID string) (*domain.Account, error) {
	query := `
		SELECT id, user_id, balance_cents, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`
	account := &domain.Account{}
	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&account.ID,
		&account.UserID,
		&account.BalanceCents,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account for user %s: %w", userID, err)
	}
	return account, nil
}

// ApplyOperationsTx locks the touched rows in account-id order, so two units
// sharing accounts always acquire locks in the same order and cannot deadlock.
// Preconditions are evaluated against the locked value, which is the authority;
// whatever the caller read before calling here may already be stale.
func (r *AccountRepository) ApplyOperationsTx(ctx context.Context, querier domain.Querier, ops []accounts_repo.BalanceOperation) (map[string]int64, error) {
	sorted := make([]accounts_repo.BalanceOperation, len(ops))
	copy(sorted, ops)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AccountID < sorted[j].AccountID })

	balances := make(map[string]int64, len(sorted))
	for _, op := range sorted {
		var current int64
		err := querier.QueryRowContext(ctx,
			`SELECT balance_cents FROM accounts WHERE id = $1 FOR UPDATE`,
			op.AccountID,
		).Scan(&current)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, domain.ErrAccountNotFound
			}
			return nil, fmt.Errorf("failed to lock account %s: %w", op.AccountID, err)
		}

		if current < op.RequireCents || current+op.DeltaCents < 0 {
			return nil, domain.ErrPreconditionFailed
		}

		res, err := querier.ExecContext(ctx,
			`UPDATE accounts SET balance_cents = balance_cents + $1, updated_at = $2 WHERE id = $3`,
			op.DeltaCents, time.Now(), op.AccountID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update balance for account %s: %w", op.AccountID, err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil, domain.ErrAccountNotFound
		}

		balances[op.AccountID] = current + op.DeltaCents
	}
	return balances, nil
}
