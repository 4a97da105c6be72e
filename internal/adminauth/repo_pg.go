package adminauth

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new admin user.
func (r *PGRepo) Create(ctx context.Context, user AdminUser) (AdminUser, error) {
	const query = `
INSERT INTO admin_users (username, hashed_password, is_active)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query, user.Username, user.HashedPassword, user.IsActive).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return AdminUser{}, err
	}
	return user, nil
}

// GetByUsername returns a user by username.
func (r *PGRepo) GetByUsername(ctx context.Context, username string) (AdminUser, error) {
	const query = `
SELECT id, username, hashed_password, is_active, created_at
FROM admin_users
WHERE username = $1
LIMIT 1`
	var user AdminUser
	err := r.DB.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.HashedPassword, &user.IsActive, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AdminUser{}, ErrNotFound
	}
	if err != nil {
		return AdminUser{}, err
	}
	return user, nil
}

// Update persists username and password changes for an existing user.
func (r *PGRepo) Update(ctx context.Context, user AdminUser) (AdminUser, error) {
	const query = `
UPDATE admin_users
SET username = $1, hashed_password = $2, is_active = $3
WHERE id = $4
RETURNING id, username, hashed_password, is_active, created_at`
	var out AdminUser
	err := r.DB.QueryRowContext(ctx, query, user.Username, user.HashedPassword, user.IsActive, user.ID).
		Scan(&out.ID, &out.Username, &out.HashedPassword, &out.IsActive, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AdminUser{}, ErrNotFound
	}
	if err != nil {
		return AdminUser{}, err
	}
	return out, nil
}

// Count returns the number of admin users.
func (r *PGRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n)
	return n, err
}
