package ledger_test

import (
	"context"
	"fmt"
	"sync"

	"wallet/internal/domain"
	"wallet/internal/repository/accounts_repo"
)

// fakeLedgerStore stands in for Postgres: it implements the account, transfer
// and outbox repositories plus the unit of work. WithinTx serializes units and
// rolls the whole state back when fn fails, mirroring the transactional
// guarantees the engine relies on.
type fakeLedgerStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	accounts  map[string]*domain.Account // by account id
	transfers []*domain.Transfer
	outbox    []*domain.OutboxMessage

	applyErr   error // injected failure for ApplyOperationsTx
	getCalls   int
	applyCalls int

	// raceWinner models a rival unit committing an account for the same user
	// between our pre-check read and our insert: the insert loses on the
	// unique index, and only then does the winner's row become visible.
	raceWinner   *domain.Account
	raceRevealed bool
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{accounts: make(map[string]*domain.Account)}
}

func (f *fakeLedgerStore) seedAccount(accountID, userID string, balanceCents int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[accountID] = &domain.Account{ID: accountID, UserID: userID, BalanceCents: balanceCents}
}

func (f *fakeLedgerStore) balance(accountID string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[accountID].BalanceCents
}

func (f *fakeLedgerStore) totalBalance() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, account := range f.accounts {
		sum += account.BalanceCents
	}
	return sum
}

func (f *fakeLedgerStore) WithinTx(ctx context.Context, fn func(querier domain.Querier) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	snapshot := f.snapshot()
	if err := fn(nil); err != nil {
		f.restore(snapshot)
		return err
	}
	return nil
}

type storeSnapshot struct {
	accounts  map[string]domain.Account
	transfers int
	outbox    int
}

func (f *fakeLedgerStore) snapshot() storeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	accounts := make(map[string]domain.Account, len(f.accounts))
	for id, account := range f.accounts {
		accounts[id] = *account
	}
	return storeSnapshot{accounts: accounts, transfers: len(f.transfers), outbox: len(f.outbox)}
}

func (f *fakeLedgerStore) restore(s storeSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.accounts {
		if _, ok := s.accounts[id]; !ok {
			delete(f.accounts, id)
		}
	}
	for id, account := range s.accounts {
		copied := account
		f.accounts[id] = &copied
	}
	f.transfers = f.transfers[:s.transfers]
	f.outbox = f.outbox[:s.outbox]
}

func (f *fakeLedgerStore) CreateAccountTx(ctx context.Context, querier domain.Querier, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceWinner != nil && f.raceWinner.UserID == account.UserID {
		f.raceRevealed = true
		return domain.ErrAccountAlreadyExists
	}
	for _, existing := range f.accounts {
		if existing.UserID == account.UserID {
			return domain.ErrAccountAlreadyExists
		}
	}
	copied := *account
	f.accounts[account.ID] = &copied
	return nil
}

func (f *fakeLedgerStore) GetAccountForUserTx(ctx context.Context, querier domain.Querier, userID string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	for _, account := range f.accounts {
		if account.UserID == userID {
			copied := *account
			return &copied, nil
		}
	}
	if f.raceRevealed && f.raceWinner != nil && f.raceWinner.UserID == userID {
		copied := *f.raceWinner
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (f *fakeLedgerStore) ApplyOperationsTx(ctx context.Context, querier domain.Querier, ops []accounts_repo.BalanceOperation) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyCalls++
	if f.applyErr != nil {
		return nil, f.applyErr
	}

	for _, op := range ops {
		account, ok := f.accounts[op.AccountID]
		if !ok {
			return nil, domain.ErrAccountNotFound
		}
		if account.BalanceCents < op.RequireCents || account.BalanceCents+op.DeltaCents < 0 {
			return nil, domain.ErrPreconditionFailed
		}
	}

	balances := make(map[string]int64, len(ops))
	for _, op := range ops {
		f.accounts[op.AccountID].BalanceCents += op.DeltaCents
		balances[op.AccountID] = f.accounts[op.AccountID].BalanceCents
	}
	return balances, nil
}

func (f *fakeLedgerStore) CreateTx(ctx context.Context, querier domain.Querier, transfer *domain.Transfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if transfer.IdempotencyKey != "" {
		for _, existing := range f.transfers {
			if existing.FromOwnerID == transfer.FromOwnerID && existing.IdempotencyKey == transfer.IdempotencyKey {
				return domain.ErrTransferAlreadyRecorded
			}
		}
	}
	copied := *transfer
	f.transfers = append(f.transfers, &copied)
	return nil
}

func (f *fakeLedgerStore) GetByIdempotencyKeyTx(ctx context.Context, querier domain.Querier, fromOwnerID, key string) (*domain.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.transfers {
		if existing.FromOwnerID == fromOwnerID && existing.IdempotencyKey == key {
			copied := *existing
			return &copied, nil
		}
	}
	return nil, domain.ErrTransferNotFound
}

func (f *fakeLedgerStore) CreateMessageTx(ctx context.Context, querier domain.Querier, msg *domain.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *msg
	f.outbox = append(f.outbox, &copied)
	return nil
}

func (f *fakeLedgerStore) GetPendingMessages(ctx context.Context, querier domain.Querier, limit int) ([]domain.OutboxMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []domain.OutboxMessage
	for _, msg := range f.outbox {
		if msg.Status == domain.OutboxStatusPending && len(pending) < limit {
			pending = append(pending, *msg)
		}
	}
	return pending, nil
}

func (f *fakeLedgerStore) UpdateMessageStatusTx(ctx context.Context, querier domain.Querier, id string, status domain.OutboxMessageStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.outbox {
		if msg.ID == id {
			msg.Status = status
			return nil
		}
	}
	return fmt.Errorf("outbox message %s not found", id)
}
