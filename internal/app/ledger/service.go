package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallet/internal/domain"
	"wallet/internal/repository/accounts_repo"
	"wallet/internal/repository/outbox_repo"
	"wallet/internal/repository/transfers_repo"
	"wallet/internal/repository/uow"
)

// Service owns all balance mutations. Correctness rests on the store's
// transactional unit, never on in-process locks, so multiple instances can run
// against the same database.
type Service interface {
	CreateAccount(ctx context.Context, userID string, initialBalanceCents int64) (*domain.Account, error)
	GetAccountForUser(ctx context.Context, userID string) (*domain.Account, error)
	Transfer(ctx context.Context, in TransferInput) (*TransferResult, error)
}

type TransferInput struct {
	FromOwnerID    string
	ToOwnerID      string
	AmountCents    int64
	IdempotencyKey string
}

type TransferResult struct {
	TransferID              string
	SourceBalanceCents      int64
	DestinationBalanceCents int64
	// Replayed is true when the result was served from a previously committed
	// transfer with the same idempotency key; no balances were touched.
	Replayed bool
}

type ledgerService struct {
	db           domain.Querier
	uow          uow.UnitOfWork
	accountRepo  accounts_repo.AccountRepository
	transferRepo transfers_repo.TransferRepository
	outboxRepo   outbox_repo.OutboxRepository
	logger       *zap.Logger
}

func NewService(
	db domain.Querier,
	unitOfWork uow.UnitOfWork,
	accountRepo accounts_repo.AccountRepository,
	transferRepo transfers_repo.TransferRepository,
	outboxRepo outbox_repo.OutboxRepository,
	logger *zap.Logger,
) Service {
	return &ledgerService{
		db:           db,
		uow:          unitOfWork,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		outboxRepo:   outboxRepo,
		logger:       logger,
	}
}

func (s *ledgerService) CreateAccount(ctx context.Context, userID string, initialBalanceCents int64) (*domain.Account, error) {
	if initialBalanceCents < 0 {
		return nil, fmt.Errorf("initial balance cannot be negative")
	}

	var account *domain.Account
	err := s.uow.WithinTx(ctx, func(querier domain.Querier) error {
		existing, err := s.accountRepo.GetAccountForUserTx(ctx, querier, userID)
		if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("failed to check existing account: %w", err)
		}
		if existing != nil {
			return domain.ErrAccountAlreadyExists
		}

		now := time.Now()
		account = &domain.Account{
			ID:           uuid.NewString(),
			UserID:       userID,
			BalanceCents: initialBalanceCents,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.accountRepo.CreateAccountTx(ctx, querier, account)
	})
	if err != nil {
		// Covers both the pre-check and a lost race on the unique index: the
		// winner's persisted row is the account, never the one built here.
		if errors.Is(err, domain.ErrAccountAlreadyExists) {
			existing, getErr := s.accountRepo.GetAccountForUserTx(ctx, s.db, userID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load existing account: %w", getErr)
			}
			return existing, domain.ErrAccountAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("user_id", userID),
		zap.Int64("balance_cents", initialBalanceCents))
	return account, nil
}

func (s *ledgerService) GetAccountForUser(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.accountRepo.GetAccountForUserTx(ctx, s.db, userID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account for user %s: %w", userID, err)
	}
	return account, nil
}

// Transfer moves amount from the source owner's account to the destination
// owner's account as one atomic unit. Either both balances change and the
// transfer is recorded, or nothing is modified and a typed failure explains
// why. The pre-check against the read balance only produces a friendly early
// failure; the debit precondition is re-evaluated under the row lock at commit
// time, and a concurrent transfer that drained the source between the two
// surfaces as InsufficientBalance.
func (s *ledgerService) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if in.FromOwnerID == in.ToOwnerID {
		return nil, domain.ErrInvalidTarget
	}

	requestHash := hashTransferInput(in)
	if in.IdempotencyKey != "" {
		replayed, err := s.replay(ctx, in, requestHash)
		if err != nil {
			return nil, err
		}
		if replayed != nil {
			return replayed, nil
		}
	}

	var result *TransferResult
	err := s.uow.WithinTx(ctx, func(querier domain.Querier) error {
		source, err := s.accountRepo.GetAccountForUserTx(ctx, querier, in.FromOwnerID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return domain.ErrSourceAccountNotFound
			}
			return err
		}

		destination, err := s.accountRepo.GetAccountForUserTx(ctx, querier, in.ToOwnerID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return domain.ErrDestinationAccountNotFound
			}
			return err
		}

		if source.BalanceCents < in.AmountCents {
			return domain.ErrInsufficientBalance
		}

		balances, err := s.accountRepo.ApplyOperationsTx(ctx, querier, []accounts_repo.BalanceOperation{
			{AccountID: source.ID, DeltaCents: -in.AmountCents, RequireCents: in.AmountCents},
			{AccountID: destination.ID, DeltaCents: in.AmountCents},
		})
		if err != nil {
			if errors.Is(err, domain.ErrPreconditionFailed) {
				return domain.ErrInsufficientBalance
			}
			return err
		}

		now := time.Now()
		transfer := &domain.Transfer{
			ID:               uuid.NewString(),
			FromOwnerID:      in.FromOwnerID,
			ToOwnerID:        in.ToOwnerID,
			FromAccountID:    source.ID,
			ToAccountID:      destination.ID,
			AmountCents:      in.AmountCents,
			FromBalanceCents: balances[source.ID],
			ToBalanceCents:   balances[destination.ID],
			Status:           domain.TransferStatusCompleted,
			IdempotencyKey:   in.IdempotencyKey,
			RequestHash:      requestHash,
			CreatedAt:        now,
		}
		if err := s.transferRepo.CreateTx(ctx, querier, transfer); err != nil {
			return err
		}

		payload, err := json.Marshal(domain.TransferCompletedEvent{
			TransferID:  transfer.ID,
			FromOwnerID: transfer.FromOwnerID,
			ToOwnerID:   transfer.ToOwnerID,
			AmountCents: transfer.AmountCents,
			Timestamp:   now,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal transfer event: %w", err)
		}
		msg := &domain.OutboxMessage{
			ID:            uuid.NewString(),
			AggregateID:   transfer.ID,
			AggregateType: "transfer",
			MessageType:   domain.TransferCompletedEventType,
			Key:           transfer.FromOwnerID,
			Payload:       payload,
			Status:        domain.OutboxStatusPending,
			CreatedAt:     now,
		}
		if err := s.outboxRepo.CreateMessageTx(ctx, querier, msg); err != nil {
			return err
		}

		result = &TransferResult{
			TransferID:              transfer.ID,
			SourceBalanceCents:      balances[source.ID],
			DestinationBalanceCents: balances[destination.ID],
		}
		return nil
	})
	if err != nil {
		// A concurrent request with the same key committed first; our whole
		// unit rolled back, so serve the winner's recorded outcome.
		if errors.Is(err, domain.ErrTransferAlreadyRecorded) && in.IdempotencyKey != "" {
			replayed, rErr := s.replay(ctx, in, requestHash)
			if rErr != nil {
				return nil, rErr
			}
			if replayed != nil {
				return replayed, nil
			}
		}
		return nil, s.mapTransferError(in, err)
	}

	s.logger.Info("transfer completed",
		zap.String("transfer_id", result.TransferID),
		zap.String("from_owner_id", in.FromOwnerID),
		zap.String("to_owner_id", in.ToOwnerID),
		zap.Int64("amount_cents", in.AmountCents))
	return result, nil
}

func (s *ledgerService) replay(ctx context.Context, in TransferInput, requestHash string) (*TransferResult, error) {
	prior, err := s.transferRepo.GetByIdempotencyKeyTx(ctx, s.db, in.FromOwnerID, in.IdempotencyKey)
	if err != nil {
		if errors.Is(err, domain.ErrTransferNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to look up idempotency key",
			zap.String("from_owner_id", in.FromOwnerID),
			zap.Error(err))
		return nil, domain.ErrStoreUnavailable
	}
	if prior.RequestHash != requestHash {
		return nil, domain.ErrIdempotencyConflict
	}
	return &TransferResult{
		TransferID:              prior.ID,
		SourceBalanceCents:      prior.FromBalanceCents,
		DestinationBalanceCents: prior.ToBalanceCents,
		Replayed:                true,
	}, nil
}

// mapTransferError lets typed failures through untouched and collapses
// everything else to StoreUnavailable so storage driver detail never leaks to
// callers. The cause is logged here, once.
func (s *ledgerService) mapTransferError(in TransferInput, err error) error {
	var transferErr *domain.TransferError
	if errors.As(err, &transferErr) {
		return transferErr
	}
	s.logger.Error("transfer aborted by storage error",
		zap.String("from_owner_id", in.FromOwnerID),
		zap.String("to_owner_id", in.ToOwnerID),
		zap.Int64("amount_cents", in.AmountCents),
		zap.Error(err))
	return domain.ErrStoreUnavailable
}

func hashTransferInput(in TransferInput) string {
	payload := fmt.Sprintf("%s|%s|%d", in.FromOwnerID, in.ToOwnerID, in.AmountCents)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
