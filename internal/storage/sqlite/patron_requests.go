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

// CreatePatronRequest persists a new philanthropist request.
func (s *SQLiteStore) CreatePatronRequest(ctx context.Context, r *models.PatronRequest) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}
	if r.Status == "" {
		r.Status = models.PatronRequestPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patron_requests (id, user_id, status, rejection_reason, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.UserID, string(r.Status), r.RejectionReason, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert patron request: %w", err)
	}
	return nil
}

// GetPatronRequest retrieves a philanthropist request by ID.
func (s *SQLiteStore) GetPatronRequest(ctx context.Context, id string) (*models.PatronRequest, error) {
	r := &models.PatronRequest{}
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, rejection_reason, created_at
		 FROM patron_requests WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.UserID, &status, &r.RejectionReason, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: patron request %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patron request: %w", err)
	}
	r.Status = models.PatronRequestStatus(status)
	return r, nil
}

// UpdatePatronRequestStatus resolves a pending request with its status and rejection reason.
// Returns ErrConflict if the request was already resolved.
func (s *SQLiteStore) UpdatePatronRequestStatus(ctx context.Context, r *models.PatronRequest) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE patron_requests SET status = ?, rejection_reason = ? WHERE id = ? AND status = ?",
		string(r.Status), r.RejectionReason, r.ID, string(models.PatronRequestPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update patron request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update patron request: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.GetPatronRequest(ctx, r.ID); err != nil {
		return err
	}
	return fmt.Errorf("%w: patron request %s is already resolved", storage.ErrConflict, r.ID)
}
