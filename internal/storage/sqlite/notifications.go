package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/bandmates/internal/models"
)

// CreateNotification persists one notification and assigns its ID.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.CreateNotifications(ctx, []*models.Notification{n})
}

// CreateNotifications persists a batch of notifications in one transaction.
func (s *SQLiteStore) CreateNotifications(ctx context.Context, ns []*models.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, n := range ns {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (user_id, subject, body, type, application, sent_at, is_read)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			n.UserID, n.Subject, n.Body, string(n.Type), string(n.Application),
			n.Timestamp.UTC().UnixMilli(), n.Read,
		)
		if err != nil {
			return fmt.Errorf("failed to insert notification: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read notification id: %w", err)
		}
		n.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateBroadcastCopies stores one copy of n per user whose profile subscribed to n.Application.
func (s *SQLiteStore) CreateBroadcastCopies(ctx context.Context, n *models.Notification) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, subject, body, type, application, sent_at, is_read)
		 SELECT u.id, ?, ?, ?, ?, ?, 0
		 FROM subscriptions sub
		 JOIN users u ON u.profile_id = sub.profile_id
		 WHERE sub.application = ?`,
		n.Subject, n.Body, string(n.Type), string(n.Application),
		n.Timestamp.UTC().UnixMilli(), string(n.Application),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert broadcast copies: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count broadcast copies: %w", err)
	}
	return int(count), nil
}

// Subscribe registers a profile for broadcasts of one application.
func (s *SQLiteStore) Subscribe(ctx context.Context, profileID string, app models.Application) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (profile_id, application) VALUES (?, ?)
		 ON CONFLICT (profile_id, application) DO NOTHING`,
		profileID, string(app),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe profile: %w", err)
	}
	return nil
}

// ListNotificationsByUser pages a user's notifications for one application, newest first.
// It also returns the total number of notifications available.
func (s *SQLiteStore) ListNotificationsByUser(ctx context.Context, userID string, app models.Application, skip, size int) ([]*models.Notification, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND application = ?",
		userID, string(app),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, subject, body, type, application, sent_at, is_read
		 FROM notifications WHERE user_id = ? AND application = ?
		 ORDER BY id DESC LIMIT ? OFFSET ?`,
		userID, string(app), size, skip,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var typ, application string
		var sentAt int64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Subject, &n.Body, &typ, &application, &sentAt, &n.Read); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		n.Application = models.Application(application)
		n.Timestamp = time.UnixMilli(sentAt).UTC()
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkAllAsRead flags a user's notifications as read, optionally only up to maxID.
func (s *SQLiteStore) MarkAllAsRead(ctx context.Context, userID string, app models.Application, maxID int64) error {
	query := "UPDATE notifications SET is_read = 1 WHERE user_id = ? AND application = ? AND is_read = 0"
	args := []any{userID, string(app)}
	if maxID > 0 {
		query += " AND id <= ?"
		args = append(args, maxID)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// CountUnread returns how many unread notifications a user has in one application.
func (s *SQLiteStore) CountUnread(ctx context.Context, userID string, app models.Application) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND application = ? AND is_read = 0",
		userID, string(app),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
