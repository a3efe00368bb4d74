package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/storage"
)

// Announcer tells members and the audience that a band went on stage.
type Announcer interface {
	AnnouncePerformance(ctx context.Context, band *models.Band) error
}

// Stage starts and ends band performances.
// It takes the same per-band lock as membership mutations, so a performance
// never starts halfway through a roster change.
type Stage struct {
	bands        storage.BandStore
	performances storage.PerformanceStore
	announcer    Announcer
	bg           background
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithAnnounceTimeout bounds each background announcement.
func WithAnnounceTimeout(d time.Duration) StageOption {
	return func(s *Stage) { s.bg.setTimeout(d) }
}

// NewStage creates a Stage. A nil announcer disables announcements.
func NewStage(bands storage.BandStore, performances storage.PerformanceStore, announcer Announcer, opts ...StageOption) *Stage {
	s := &Stage{bands: bands, performances: performances, announcer: announcer}
	s.bg.setTimeout(defaultNotifyTimeout)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a performance of the band identified by key. Only owners and admins may start one.
func (s *Stage) Start(ctx context.Context, bandKey, requesterID string) (*models.Performance, error) {
	var started *models.Performance

	band, err := s.bands.UpdateBand(ctx, bandKey, func(ctx context.Context, band *models.Band) (bool, error) {
		if !CanAdd(band.RoleOf(requesterID)) {
			return false, ErrInsufficientRole
		}

		_, err := s.performances.GetActivePerformance(ctx, band.Profile.ID)
		if err == nil {
			return false, ErrAlreadyPerforming
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return false, err
		}

		p := &models.Performance{ProfileID: band.Profile.ID}
		if err := s.performances.StartPerformance(ctx, p); err != nil {
			return false, err
		}
		started = p
		return false, nil
	})
	if err != nil {
		return nil, bandErr(err)
	}

	slog.Info("Performance started", "band_id", band.ID, "performance_id", started.ID)
	if s.announcer != nil {
		snapshot := band.Clone()
		s.bg.run(ctx, "performance_started", func(ctx context.Context) error {
			return s.announcer.AnnouncePerformance(ctx, snapshot)
		})
	}

	return started, nil
}

// Wait blocks until every background announcement has finished.
func (s *Stage) Wait() {
	s.bg.wait()
}

// End stops the running performance of the band identified by key.
func (s *Stage) End(ctx context.Context, bandKey, requesterID string) error {
	_, err := s.bands.UpdateBand(ctx, bandKey, func(ctx context.Context, band *models.Band) (bool, error) {
		if !CanAdd(band.RoleOf(requesterID)) {
			return false, ErrInsufficientRole
		}

		p, err := s.performances.GetActivePerformance(ctx, band.Profile.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return false, ErrNotPerforming
		}
		if err != nil {
			return false, err
		}

		if err := s.performances.EndPerformance(ctx, p.ID); err != nil {
			return false, fmt.Errorf("failed to end performance: %w", err)
		}
		slog.Info("Performance ended", "band_id", band.ID, "performance_id", p.ID)
		return false, nil
	})
	return bandErr(err)
}
