package users_repo

import (
	"context"

	"wallet/internal/domain"
)

type UserRepository interface {
	CreateTx(ctx context.Context, querier domain.Querier, user *domain.User) error
	GetByUsernameTx(ctx context.Context, querier domain.Querier, username string) (*domain.User, error)
	GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.User, error)
	UpdateProfileTx(ctx context.Context, querier domain.Querier, id string, update domain.ProfileUpdate) error
	SearchByNameTx(ctx context.Context, querier domain.Querier, filter string) ([]domain.User, error)
}
