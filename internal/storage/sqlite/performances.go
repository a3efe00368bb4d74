package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/storage"
)

// GetActivePerformance retrieves the running performance of a profile.
func (s *SQLiteStore) GetActivePerformance(ctx context.Context, profileID string) (*models.Performance, error) {
	p := &models.Performance{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, started_at FROM performances
		 WHERE profile_id = ? AND ended_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`,
		profileID,
	).Scan(&p.ID, &p.ProfileID, &p.StartedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no active performance for %s", storage.ErrNotFound, profileID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active performance: %w", err)
	}
	return p, nil
}

// StartPerformance persists a running performance.
func (s *SQLiteStore) StartPerformance(ctx context.Context, p *models.Performance) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.StartedAt == 0 {
		p.StartedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO performances (id, profile_id, started_at) VALUES (?, ?, ?)",
		p.ID, p.ProfileID, p.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert performance: %w", err)
	}
	return nil
}

// EndPerformance stamps the end time of a running performance.
func (s *SQLiteStore) EndPerformance(ctx context.Context, performanceID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE performances SET ended_at = ? WHERE id = ? AND ended_at IS NULL",
		time.Now().Unix(), performanceID,
	)
	if err != nil {
		return fmt.Errorf("failed to end performance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to end performance: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: active performance %s", storage.ErrNotFound, performanceID)
	}
	return nil
}
