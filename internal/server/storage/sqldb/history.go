package sqldb

import (
	"context"
	"fmt"

	"github.com/iudanet/logindash/internal/models"
)

// RecordLogin inserts a login history entry
func (q *queries) RecordLogin(ctx context.Context, entry *models.LoginHistory) error {
	query := rebind(q.dialect, `
		INSERT INTO login_history (id, user_id, ip_address, user_agent, login_time)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := q.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.IPAddress,
		entry.UserAgent,
		entry.LoginTime.UTC(),
	)
	if err != nil {
		return classify(fmt.Errorf("failed to insert login history: %w", err))
	}

	return nil
}

// ListRecentLogins returns up to limit entries for a user, most recent first
func (q *queries) ListRecentLogins(ctx context.Context, userID string, limit int) ([]*models.LoginHistory, error) {
	entries := make([]*models.LoginHistory, 0)
	if limit <= 0 {
		return entries, nil
	}

	query := rebind(q.dialect, `
		SELECT id, user_id, ip_address, user_agent, login_time
		FROM login_history
		WHERE user_id = ?
		ORDER BY login_time DESC
		LIMIT ?
	`)

	rows, err := q.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query login history: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		entry := &models.LoginHistory{}
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.LoginTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan login history: %w", err)
		}
		entry.LoginTime = entry.LoginTime.UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("failed to iterate login history: %w", err))
	}

	return entries, nil
}
