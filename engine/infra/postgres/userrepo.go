package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/fieldops/dispatch/engine/core"
	"github.com/fieldops/dispatch/engine/task/uc"
	"github.com/fieldops/dispatch/engine/user"
)

var userColumns = []string{
	"id",
	"username",
	"full_name",
	"role",
	"is_active",
	"created_at",
}

// UserRepo implements user.Repository backed by a pgx-compatible pool.
type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetByID(ctx context.Context, id core.ID) (*user.User, error) {
	sql, args, err := squirrel.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var u user.User
	if err := pgxscan.Get(ctx, r.db, &u, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, uc.ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) ListPrivileged(ctx context.Context) ([]*user.User, error) {
	sql, args, err := squirrel.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"role": []user.Role{user.RoleAdmin, user.RoleDispatcher}}).
		Where(squirrel.Eq{"is_active": true}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var users []*user.User
	if err := pgxscan.Select(ctx, r.db, &users, sql, args...); err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	return users, nil
}
