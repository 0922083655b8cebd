package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"wallet/internal/domain"
)

type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) CreateTx(ctx context.Context, querier domain.Querier, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := querier.ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user %s: %w", user.Username, err)
	}
	return nil
}

func (r *UserRepository) GetByUsernameTx(ctx context.Context, querier domain.Querier, username string) (*domain.User, error) {
	query := `
		SELECT id, username, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	return r.scanUser(querier.QueryRowContext(ctx, query, username), username)
}

func (r *UserRepository) GetByIDTx(ctx context.Context, querier domain.Querier, id string) (*domain.User, error) {
	query := `
		SELECT id, username, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(querier.QueryRowContext(ctx, query, id), id)
}

func (r *UserRepository) UpdateProfileTx(ctx context.Context, querier domain.Querier, id string, update domain.ProfileUpdate) error {
	query := `
		UPDATE users
		SET first_name = COALESCE($1, first_name),
		    last_name = COALESCE($2, last_name),
		    password_hash = COALESCE($3, password_hash),
		    updated_at = $4
		WHERE id = $5
	`
	res, err := querier.ExecContext(ctx, query,
		update.FirstName, update.LastName, update.PasswordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update profile for user %s: %w", id, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SearchByNameTx(ctx context.Context, querier domain.Querier, filter string) ([]domain.User, error) {
	query := `
		SELECT id, username, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%'
		ORDER BY username ASC
	`
	rows, err := querier.QueryContext(ctx, query, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user := domain.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.FirstName,
			&user.LastName,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) scanUser(row *sql.Row, ref string) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", ref, err)
	}
	return user, nil
}
