package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	accountserrors "hotelbooking/internal/accounts/errors"
	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/model"
)

const userColumns = `id, name, email, phone, password_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type sqliteUserRepository struct {
	db *sqlite.DB
}

func NewSQLiteUserRepository(db *sqlite.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`INSERT INTO users (name, email, phone, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Name, user.Email, user.Phone, user.PasswordHash, sqlite.FormatTime(now), sqlite.FormatTime(now))
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return accountserrors.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *sqliteUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *sqliteUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	// The column is declared COLLATE NOCASE.
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *sqliteUserRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user, err := scanUser(r.db.Conn(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountserrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepository) Update(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, phone = ?, updated_at = ? WHERE id = ?`,
		user.Name, user.Email, user.Phone, sqlite.FormatTime(now), user.ID)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return accountserrors.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return accountserrors.ErrUserNotFound
	}
	user.UpdatedAt = now
	return nil
}

func (r *sqliteUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, sqlite.FormatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return accountserrors.ErrUserNotFound
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var created, updated string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if u.CreatedAt, err = sqlite.ParseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = sqlite.ParseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}
