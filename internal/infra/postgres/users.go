package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"satprep-service/internal/domain"
)

// UserRepo implements app.UserRepository over the users table.
type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	if _, err := r.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getWhere(ctx, "lower(email) = lower(?)", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getWhere(ctx, "username = ?", username)
}

func (r *UserRepo) GetByGoogleID(ctx context.Context, googleID string) (domain.User, error) {
	return r.getWhere(ctx, "google_id = ?", googleID)
}

func (r *UserRepo) getWhere(ctx context.Context, clause string, arg any) (domain.User, error) {
	user := domain.User{}
	err := r.db.NewSelect().Model(&user).Where(clause, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) UpdateName(ctx context.Context, id, name string) error {
	return r.update(ctx, id, func(q *bun.UpdateQuery) {
		q.Set("name = ?", name)
	})
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.update(ctx, id, func(q *bun.UpdateQuery) {
		q.Set("password_hash = ?", passwordHash)
	})
}

func (r *UserRepo) LinkGoogle(ctx context.Context, id, googleID, email string) error {
	return r.update(ctx, id, func(q *bun.UpdateQuery) {
		q.Set("google_id = ?", googleID)
		q.Set("email = COALESCE(email, NULLIF(?, ''))", email)
	})
}

func (r *UserRepo) update(ctx context.Context, id string, set func(*bun.UpdateQuery)) error {
	q := r.db.NewUpdate().Model((*domain.User)(nil)).Where("id = ?", id)
	set(q)
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
