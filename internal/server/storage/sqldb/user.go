package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/logindash/internal/dbx"
	"github.com/iudanet/logindash/internal/models"
	"github.com/iudanet/logindash/internal/server/storage"
)

// queries implements storage.Tx over a *sql.DB or *sql.Tx
type queries struct {
	db      dbx.DBTX
	dialect Dialect
}

var _ storage.Tx = (*queries)(nil)

const userColumns = `id, username, email, password_hash, created_at, last_login`

// CreateUser creates a new user in the storage
func (q *queries) CreateUser(ctx context.Context, user *models.User) error {
	query := rebind(q.dialect, `
		INSERT INTO users (id, username, email, password_hash, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	var lastLogin sql.NullTime
	if user.LastLogin != nil {
		lastLogin = sql.NullTime{Time: user.LastLogin.UTC(), Valid: true}
	}

	_, err := q.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.UTC(),
		lastLogin,
	)

	if err != nil {
		// Проверяем на нарушение уникальности username/email
		if dupErr := uniqueViolation(err); dupErr != nil {
			return dupErr
		}
		return classify(fmt.Errorf("failed to insert user: %w", err))
	}

	return nil
}

// GetUserByUsername retrieves user by username
func (q *queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return q.getUser(ctx, `username = ?`, username)
}

// GetUserByEmail retrieves user by email
func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return q.getUser(ctx, `email = ?`, email)
}

// GetUserByID retrieves user by ID
func (q *queries) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return q.getUser(ctx, `id = ?`, userID)
}

func (q *queries) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	query := rebind(q.dialect, `SELECT `+userColumns+` FROM users WHERE `+where)

	user := &models.User{}
	var lastLogin sql.NullTime

	err := q.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&lastLogin,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, classify(fmt.Errorf("failed to get user: %w", err))
	}

	user.CreatedAt = user.CreatedAt.UTC()
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		user.LastLogin = &t
	}

	return user, nil
}

// UpdateLastLogin updates the last login timestamp
func (q *queries) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	query := rebind(q.dialect, `UPDATE users SET last_login = ? WHERE id = ?`)

	result, err := q.db.ExecContext(ctx, query, lastLogin.UTC(), userID)
	if err != nil {
		return classify(fmt.Errorf("failed to update last login: %w", err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
