package storage

import (
	"context"

	"github.com/iudanet/logindash/internal/models"
)

// LoginHistoryStorage defines interface for the append-only login history log
type LoginHistoryStorage interface {
	// RecordLogin inserts a login history entry
	// The user must exist
	RecordLogin(ctx context.Context, entry *models.LoginHistory) error

	// ListRecentLogins returns up to limit entries for a user, most recent first
	// Returns empty slice if no entries found or limit <= 0
	ListRecentLogins(ctx context.Context, userID string, limit int) ([]*models.LoginHistory, error)
}
