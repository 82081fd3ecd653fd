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

const adminColumns = `id, username, email, name, role, password_hash, last_login_at, created_at`

type sqliteAdminRepository struct {
	db *sqlite.DB
}

func NewSQLiteAdminRepository(db *sqlite.DB) AdminRepository {
	return &sqliteAdminRepository{db: db}
}

func (r *sqliteAdminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	return r.findOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE username = ?`, username)
}

func (r *sqliteAdminRepository) FindByID(ctx context.Context, id int64) (*model.Admin, error) {
	return r.findOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)
}

func (r *sqliteAdminRepository) findOne(ctx context.Context, query string, arg any) (*model.Admin, error) {
	var a model.Admin
	var lastLogin sql.NullString
	var created string
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Username, &a.Email, &a.Name, &a.Role, &a.PasswordHash, &lastLogin, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountserrors.ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	if a.LastLoginAt, err = sqlite.ParseNullTime(lastLogin); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = sqlite.ParseTime(created); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *sqliteAdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	now := time.Now().UTC()
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`INSERT INTO admins (username, email, name, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		admin.Username, admin.Email, admin.Name, admin.Role, admin.PasswordHash, sqlite.FormatTime(now))
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return accountserrors.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	if admin.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read admin id: %w", err)
	}
	admin.CreatedAt = now
	return nil
}

func (r *sqliteAdminRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE admins SET last_login_at = ? WHERE id = ?`, sqlite.FormatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to record admin login: %w", err)
	}
	return nil
}
