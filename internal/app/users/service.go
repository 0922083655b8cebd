package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallet/internal/app/ledger"
	"wallet/internal/auth"
	"wallet/internal/domain"
	"wallet/internal/repository/uow"
	"wallet/internal/repository/users_repo"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, string, error)
	Signin(ctx context.Context, username, password string) (string, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) error
	SearchUsers(ctx context.Context, filter string) ([]domain.User, error)
}

type SignupInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

// ProfileInput carries optional profile changes; nil fields are untouched.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Password  *string
}

type userService struct {
	db                  domain.Querier
	uow                 uow.UnitOfWork
	userRepo            users_repo.UserRepository
	ledger              ledger.Service
	hasher              auth.PasswordHasher
	tokens              *auth.TokenManager
	initialBalanceCents int64
	logger              *zap.Logger
}

func NewService(
	db domain.Querier,
	unitOfWork uow.UnitOfWork,
	userRepo users_repo.UserRepository,
	ledgerService ledger.Service,
	hasher auth.PasswordHasher,
	tokens *auth.TokenManager,
	initialBalanceCents int64,
	logger *zap.Logger,
) Service {
	return &userService{
		db:                  db,
		uow:                 unitOfWork,
		userRepo:            userRepo,
		ledger:              ledgerService,
		hasher:              hasher,
		tokens:              tokens,
		initialBalanceCents: initialBalanceCents,
		logger:              logger,
	}
}

func (s *userService) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if len(in.Username) < 3 || len(in.Username) > 30 {
		return nil, "", fmt.Errorf("%w: username must be 3-30 characters", ErrInvalidInput)
	}
	if len(in.Password) < 6 {
		return nil, "", fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	if in.FirstName == "" || len(in.FirstName) > 50 || in.LastName == "" || len(in.LastName) > 50 {
		return nil, "", fmt.Errorf("%w: first and last name must be 1-50 characters", ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.uow.WithinTx(ctx, func(querier domain.Querier) error {
		return s.userRepo.CreateTx(ctx, querier, user)
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, "", domain.ErrUserAlreadyExists
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, token, nil
}

// Signin verifies credentials, issues a token, and makes sure the user holds
// an account: first successful sign-in creates one with the configured initial
// balance, later sign-ins find the existing account and leave it alone.
func (s *userService) Signin(ctx context.Context, username, password string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := s.userRepo.GetByUsernameTx(ctx, s.db, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}

	if _, err := s.ledger.CreateAccount(ctx, user.ID, s.initialBalanceCents); err != nil {
		if !errors.Is(err, domain.ErrAccountAlreadyExists) {
			return "", fmt.Errorf("failed to provision account: %w", err)
		}
	}

	return s.tokens.Issue(user.ID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) error {
	update := domain.ProfileUpdate{}

	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" || len(name) > 50 {
			return fmt.Errorf("%w: first name must be 1-50 characters", ErrInvalidInput)
		}
		update.FirstName = &name
	}
	if in.LastName != nil {
		name := strings.TrimSpace(*in.LastName)
		if name == "" || len(name) > 50 {
			return fmt.Errorf("%w: last name must be 1-50 characters", ErrInvalidInput)
		}
		update.LastName = &name
	}
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		update.PasswordHash = &hash
	}

	if update.FirstName == nil && update.LastName == nil && update.PasswordHash == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	err := s.uow.WithinTx(ctx, func(querier domain.Querier) error {
		return s.userRepo.UpdateProfileTx(ctx, querier, userID, update)
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (s *userService) SearchUsers(ctx context.Context, filter string) ([]domain.User, error) {
	users, err := s.userRepo.SearchByNameTx(ctx, s.db, strings.TrimSpace(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
