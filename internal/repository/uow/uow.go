package uow

import (
	"context"
	"database/sql"
	"fmt"

	"wallet/internal/domain"
)

// UnitOfWork runs fn inside one database transaction. A nil error from fn
// commits; any error rolls back, so repositories composed inside fn either all
// apply or none do.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(querier domain.Querier) error) error
}

type sqlUnitOfWork struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) UnitOfWork {
	return &sqlUnitOfWork{db: db}
}

func (u *sqlUnitOfWork) WithinTx(ctx context.Context, fn func(querier domain.Querier) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
