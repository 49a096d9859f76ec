package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anempire/anempire-web/internal/platform/db"
	"github.com/anempire/anempire-web/internal/shared"
)

// Repository defines persistence operations for the credential and
// reset-token stores.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Insert(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	List(ctx context.Context) ([]User, error)
	CountActiveAdmins(ctx context.Context) (int64, error)
	InsertResetToken(ctx context.Context, token *ResetToken) error
	RedeemResetToken(ctx context.Context, token, passwordHash string) (uuid.UUID, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, password_hash, COALESCE(name, ''), role, status, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by case-folded email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM admin_users WHERE lower(email) = lower($1)`,
		strings.TrimSpace(email))
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM admin_users WHERE id = $1`, id)
	return scanUser(row)
}

// Insert persists a new user. A duplicate case-folded email maps to
// ErrAlreadyExists via the unique index.
func (r *PGRepository) Insert(ctx context.Context, user *User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admin_users (email, password_hash, name, role, status)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		 RETURNING id, created_at, updated_at`,
		strings.ToLower(strings.TrimSpace(user.Email)), user.PasswordHash, user.Name, user.Role, user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrAlreadyExists
		}
		return err
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return nil
}

// UpdatePassword rehashes are written with a fresh updated_at.
func (r *PGRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.exec(ctx,
		`UPDATE admin_users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, passwordHash)
}

// UpdateRole mutates the role field.
func (r *PGRepository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	return r.exec(ctx,
		`UPDATE admin_users SET role = $2, updated_at = now() WHERE id = $1`,
		id, role)
}

// UpdateStatus mutates the status field.
func (r *PGRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	return r.exec(ctx,
		`UPDATE admin_users SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
}

func (r *PGRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns all users, newest first.
func (r *PGRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM admin_users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.Status, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountActiveAdmins reports how many active admin accounts exist.
func (r *PGRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM admin_users WHERE role = 'admin' AND status = 'active'`).Scan(&count)
	return count, err
}

// InsertResetToken stores a freshly minted reset token. Each request mints a
// new token; outstanding ones are never reused.
func (r *PGRepository) InsertResetToken(ctx context.Context, token *ResetToken) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO password_reset_tokens (admin_user_id, token, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		token.UserID, token.Token, token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

// RedeemResetToken marks the token used and writes the new password hash in a
// single transaction. The conditional update is the concurrency guard: of two
// concurrent redemptions only one matches used_at IS NULL.
func (r *PGRepository) RedeemResetToken(ctx context.Context, token, passwordHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE password_reset_tokens
			 SET used_at = now()
			 WHERE token = $1 AND used_at IS NULL AND expires_at > now()
			 RETURNING admin_user_id`,
			token).Scan(&userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrInvalidOrExpiredToken
			}
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE admin_users SET password_hash = $2, updated_at = now() WHERE id = $1`,
			userID, passwordHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

var _ Repository = (*PGRepository)(nil)
