package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/storage"
)

// CreateBand persists a new band, its profile and its initial members.
func (s *SQLiteStore) CreateBand(ctx context.Context, band *models.Band) error {
	// Generate IDs if not set
	if band.ID == "" {
		band.ID = uuid.New().String()
	}
	if band.Profile.ID == "" {
		band.Profile.ID = uuid.New().String()
	}
	if band.CreatedAt == 0 {
		band.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO profiles (id, handle) VALUES (?, ?)",
		band.Profile.ID, band.Profile.Handle,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: handle %q is taken", storage.ErrConflict, band.Profile.Handle)
	}
	if err != nil {
		return fmt.Errorf("failed to insert band profile: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO businesses (id, name, profile_id, created_at) VALUES (?, ?, ?, ?)",
		band.ID, band.Name, band.Profile.ID, band.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert band: %w", err)
	}

	if err := saveMembers(ctx, tx, band); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBandByKey retrieves a band, including members, by its profile handle.
func (s *SQLiteStore) GetBandByKey(ctx context.Context, key string) (*models.Band, error) {
	return s.loadBand(ctx, "p.handle = ?", key)
}

// ListBandsByUser retrieves every band userID belongs to, ordered by name.
func (s *SQLiteStore) ListBandsByUser(ctx context.Context, userID string) ([]*models.Band, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id FROM businesses b
		 JOIN members m ON m.business_id = b.id
		 WHERE m.user_id = ?
		 ORDER BY b.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bands by user: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan band id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bands: %w", err)
	}

	bands := make([]*models.Band, 0, len(ids))
	for _, id := range ids {
		band, err := s.loadBand(ctx, "b.id = ?", id)
		if err != nil {
			return nil, err
		}
		bands = append(bands, band)
	}

	return bands, nil
}

// UpdateBand runs mutate against the band identified by key under a per-band lock.
// Reads happen outside the write transaction so mutate may query the store freely.
func (s *SQLiteStore) UpdateBand(ctx context.Context, key string, mutate storage.MutateFunc) (*models.Band, error) {
	unlock := s.bands.Lock(strings.ToLower(key))
	defer unlock()

	band, err := s.GetBandByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	changed, err := mutate(ctx, band)
	if err != nil {
		return nil, err
	}
	if !changed {
		return band, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveMembers(ctx, tx, band); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return band, nil
}

// saveMembers makes the stored member set of band equal to band.Members.
func saveMembers(ctx context.Context, tx *sql.Tx, band *models.Band) error {
	keep := make([]any, 0, len(band.Members)+1)
	keep = append(keep, band.ID)
	for _, m := range band.Members {
		keep = append(keep, m.UserID)
	}

	// Delete detached members
	query := "DELETE FROM members WHERE business_id = ?"
	if len(band.Members) > 0 {
		query += " AND user_id NOT IN (?" + repeatPlaceholder(len(band.Members)-1) + ")"
	}
	if _, err := tx.ExecContext(ctx, query, keep...); err != nil {
		return fmt.Errorf("failed to delete members: %w", err)
	}

	now := time.Now().Unix()
	for _, m := range band.Members {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.JoinedAt == 0 {
			m.JoinedAt = now
		}
		m.BandID = band.ID

		_, err := tx.ExecContext(ctx,
			`INSERT INTO members (id, business_id, user_id, role, share, joined_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET role = excluded.role, share = excluded.share`,
			m.ID, band.ID, m.UserID, string(m.Role), m.Share, m.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save member %s: %w", m.UserID, err)
		}
	}

	return nil
}

// loadBand fetches one band matching where, plus its members.
func (s *SQLiteStore) loadBand(ctx context.Context, where string, arg any) (*models.Band, error) {
	band := &models.Band{}
	err := s.db.QueryRowContext(ctx,
		`SELECT b.id, b.name, b.created_at, p.id, p.handle
		 FROM businesses b JOIN profiles p ON p.id = b.profile_id
		 WHERE `+where,
		arg,
	).Scan(&band.ID, &band.Name, &band.CreatedAt, &band.Profile.ID, &band.Profile.Handle)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: band %v", storage.ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get band: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.user_id, p.handle, m.role, m.share, m.joined_at
		 FROM members m
		 JOIN users u ON u.id = m.user_id
		 JOIN profiles p ON p.id = u.profile_id
		 WHERE m.business_id = ?
		 ORDER BY m.joined_at, m.rowid`,
		band.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &models.Member{BandID: band.ID}
		var role string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Handle, &role, &m.Share, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = models.Role(role)
		band.Members = append(band.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return band, nil
}
