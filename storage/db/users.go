package db

import (
	"context"
	"database/sql"
)

const createUser = `
INSERT INTO users (id, email, name, role, bio, avatar_url, preferred_module, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, email, name, role, bio, avatar_url, preferred_module, password_hash, created_at, updated_at
`

type CreateUserParams struct {
	ID              string
	Email           string
	Name            string
	Role            string
	Bio             sql.NullString
	AvatarUrl       sql.NullString
	PreferredModule sql.NullString
	PasswordHash    string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	ts := now()
	row := q.db.QueryRowContext(ctx, createUser,
		arg.ID,
		arg.Email,
		arg.Name,
		arg.Role,
		arg.Bio,
		arg.AvatarUrl,
		arg.PreferredModule,
		arg.PasswordHash,
		ts,
		ts,
	)
	return scanUser(row)
}

const getUserByEmail = `
SELECT id, email, name, role, bio, avatar_url, preferred_module, password_hash, created_at, updated_at
FROM users WHERE email = ? COLLATE NOCASE
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByID = `
SELECT id, email, name, role, bio, avatar_url, preferred_module, password_hash, created_at, updated_at
FROM users WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const updateUserProfile = `
UPDATE users
SET name = ?, role = ?, bio = ?, avatar_url = ?, preferred_module = ?, updated_at = ?
WHERE id = ?
`

type UpdateUserProfileParams struct {
	ID              string
	Name            string
	Role            string
	Bio             sql.NullString
	AvatarUrl       sql.NullString
	PreferredModule sql.NullString
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx, updateUserProfile,
		arg.Name,
		arg.Role,
		arg.Bio,
		arg.AvatarUrl,
		arg.PreferredModule,
		now(),
		arg.ID,
	)
	return err
}

func scanUser(row *sql.Row) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.Role,
		&i.Bio,
		&i.AvatarUrl,
		&i.PreferredModule,
		&i.PasswordHash,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const revokeToken = `
INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
ON CONFLICT (jti) DO NOTHING
`

func (q *Queries) RevokeToken(ctx context.Context, jti string, expiresAt string) error {
	_, err := q.db.ExecContext(ctx, revokeToken, jti, expiresAt)
	return err
}

const isTokenRevoked = `SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`

func (q *Queries) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, isTokenRevoked, jti).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

const deleteExpiredRevocations = `DELETE FROM revoked_tokens WHERE expires_at < ?`

func (q *Queries) DeleteExpiredRevocations(ctx context.Context, before string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredRevocations, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
