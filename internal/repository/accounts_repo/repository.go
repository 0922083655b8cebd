package accounts_repo

import (
	"context"

	"wallet/internal/domain"
)

// BalanceOperation is one conditional mutation inside an atomic unit.
// RequireCents is the minimum balance the account must hold at commit time,
// checked against the stored value under a row lock, not the value the caller
// read earlier. Credits pass RequireCents zero; every operation additionally
// must not take the balance below zero.
type BalanceOperation struct {
	AccountID    string
	DeltaCents   int64
	RequireCents int64
}

// AccountRepository is the account store. ApplyOperationsTx must be called
// with a transaction Querier: either every operation is applied or, when any
// account is missing or any precondition fails, the error aborts the enclosing
// transaction and no balance changes.
type AccountRepository interface {
	CreateAccountTx(ctx context.Context, querier domain.Querier, account *domain.Account) error
	GetAccountForUserTx(ctx context.Context, querier domain.Querier, userID string) (*domain.Account, error)
	ApplyOperationsTx(ctx context.Context, querier domain.Querier, ops []BalanceOperation) (map[string]int64, error)
}
