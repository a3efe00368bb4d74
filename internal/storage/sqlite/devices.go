package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/bandmates/internal/models"
)

// RegisterDevice stores a push endpoint. Registering the same token twice is a no-op.
func (s *SQLiteStore) RegisterDevice(ctx context.Context, device *models.Device) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	if device.CreatedAt == 0 {
		device.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (id, user_id, application, token, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, application, token) DO NOTHING`,
		device.ID, device.UserID, string(device.Application), device.Token, device.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// ListDevicesByUser retrieves all devices a user registered for one application.
func (s *SQLiteStore) ListDevicesByUser(ctx context.Context, userID string, app models.Application) ([]*models.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, application, token, created_at
		 FROM devices WHERE user_id = ? AND application = ?
		 ORDER BY created_at`,
		userID, string(app),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		d := &models.Device{}
		var application string
		if err := rows.Scan(&d.ID, &d.UserID, &application, &d.Token, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		d.Application = models.Application(application)
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}

	return devices, nil
}
