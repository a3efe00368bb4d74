// Package membership implements the rules for adding, promoting and removing band members.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/bandmates/internal/calculator"
	"github.com/mmynk/bandmates/internal/metrics"
	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/storage"
)

// Notifier delivers membership side-effect notifications.
type Notifier interface {
	SendAddedToBand(ctx context.Context, user *models.User, band *models.Band) error
	SendRemovedFromBand(ctx context.Context, member *models.Member, band *models.Band) error
}

// Service applies membership mutations to bands.
// Notifications are sent in the background once the mutation is committed;
// their failure never fails the mutation.
type Service struct {
	bands    storage.BandStore
	users    storage.UserStore
	gate     Gate
	notifier Notifier
	metrics  *metrics.Metrics
	bg       background
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records mutation outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNotifyTimeout bounds each background notification.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) { s.bg.setTimeout(d) }
}

// NewService creates a membership service.
func NewService(bands storage.BandStore, users storage.UserStore, gate Gate, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		bands:    bands,
		users:    users,
		gate:     gate,
		notifier: notifier,
	}
	s.bg.setTimeout(defaultNotifyTimeout)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBand registers a band under handle with requesterID as its owner holding the whole share.
func (s *Service) CreateBand(ctx context.Context, requesterID, name, handle string) (*models.Band, error) {
	name, handle = strings.TrimSpace(name), strings.TrimSpace(handle)
	if name == "" || !models.ValidHandle(handle) {
		return nil, ErrInvalidBand
	}

	band := &models.Band{
		Name:    name,
		Profile: models.Profile{Handle: handle},
		Members: []*models.Member{{
			UserID: requesterID,
			Role:   models.RoleOwner,
			Share:  models.TotalShare,
		}},
	}
	err := s.bands.CreateBand(ctx, band)
	if errors.Is(err, storage.ErrConflict) {
		return nil, fmt.Errorf("%w: %s", ErrHandleTaken, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create band: %w", err)
	}

	slog.Info("Band created", "band_id", band.ID, "handle", handle, "owner_id", requesterID)
	return s.GetBand(ctx, handle)
}

// GetBand returns the band identified by key.
func (s *Service) GetBand(ctx context.Context, key string) (*models.Band, error) {
	band, err := s.bands.GetBandByKey(ctx, key)
	if err != nil {
		return nil, bandErr(err)
	}
	return band, nil
}

// ListBandsForUser returns the bands userID belongs to, ordered by name.
func (s *Service) ListBandsForUser(ctx context.Context, userID string) ([]*models.Band, error) {
	return s.bands.ListBandsByUser(ctx, userID)
}

// AddMember adds the user with handle to the band as a plain member with no share.
// Adding a user that is already a member returns the band unchanged.
func (s *Service) AddMember(ctx context.Context, bandKey, requesterID, handle string) (*models.Band, error) {
	var added *models.User

	band, err := s.bands.UpdateBand(ctx, bandKey, func(ctx context.Context, band *models.Band) (bool, error) {
		user, err := s.users.GetUserByHandle(ctx, handle)
		if errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("%w: %s", ErrUserNotFound, handle)
		}
		if err != nil {
			return false, err
		}

		if band.MemberByUserID(user.ID) != nil {
			return false, nil
		}

		if err := s.checkGate(ctx, band); err != nil {
			return false, err
		}
		if !CanAdd(band.RoleOf(requesterID)) {
			return false, ErrInsufficientRole
		}

		band.Members = append(band.Members, &models.Member{
			UserID: user.ID,
			Handle: user.Profile.Handle,
			Role:   models.RoleMember,
			Share:  0,
		})
		added = user
		return true, nil
	})
	err = bandErr(err)
	s.observe("add", err)
	if err != nil {
		slog.Warn("AddMember failed", "band", bandKey, "handle", handle, "error", err)
		return nil, err
	}

	if added != nil {
		slog.Info("Member added", "band_id", band.ID, "user_id", added.ID)
		snapshot := band.Clone()
		s.notify(ctx, "added_to_band", func(ctx context.Context) error {
			return s.notifier.SendAddedToBand(ctx, added, snapshot)
		})
	}

	return band, nil
}

// UpdateMemberRole changes the role of the member with handle.
// Promoting someone to owner demotes the current owner to admin.
func (s *Service) UpdateMemberRole(ctx context.Context, bandKey, requesterID, handle string, role models.Role) (*models.Band, error) {
	band, err := s.bands.UpdateBand(ctx, bandKey, func(ctx context.Context, band *models.Band) (bool, error) {
		target := band.MemberByHandle(handle)
		if target == nil {
			return false, fmt.Errorf("%w: %s", ErrMemberNotFound, handle)
		}

		if err := CanUpdateRole(band.RoleOf(requesterID), target.Role, role); err != nil {
			return false, err
		}
		if err := s.checkGate(ctx, band); err != nil {
			return false, err
		}

		if target.Role == role {
			return false, nil
		}
		ApplyRole(band, target, role)
		return true, nil
	})
	err = bandErr(err)
	s.observe("update_role", err)
	if err != nil {
		slog.Warn("UpdateMemberRole failed", "band", bandKey, "handle", handle, "role", role, "error", err)
		return nil, err
	}

	slog.Info("Member role updated", "band_id", band.ID, "handle", handle, "role", role)
	return band, nil
}

// RemoveMember removes the member with handle and spreads their share over the remaining members.
func (s *Service) RemoveMember(ctx context.Context, bandKey, requesterID, handle string) (*models.Band, error) {
	var removed *models.Member

	band, err := s.bands.UpdateBand(ctx, bandKey, func(ctx context.Context, band *models.Band) (bool, error) {
		target := band.MemberByHandle(handle)
		if target == nil {
			return false, fmt.Errorf("%w: %s", ErrMemberNotFound, handle)
		}

		if err := CanRemove(band.RoleOf(requesterID), target.UserID == requesterID, target.Role); err != nil {
			return false, err
		}
		if err := s.checkGate(ctx, band); err != nil {
			return false, err
		}

		detached := band.Detach(target.UserID)
		if detached.Share > 0 && len(band.Members) > 0 {
			if err := redistribute(band, detached.Share); err != nil {
				return false, err
			}
		}

		removed = detached
		return true, nil
	})
	err = bandErr(err)
	s.observe("remove", err)
	if err != nil {
		slog.Warn("RemoveMember failed", "band", bandKey, "handle", handle, "error", err)
		return nil, err
	}

	slog.Info("Member removed", "band_id", band.ID, "user_id", removed.UserID, "share", removed.Share)
	snapshot := band.Clone()
	s.notify(ctx, "removed_from_band", func(ctx context.Context) error {
		return s.notifier.SendRemovedFromBand(ctx, removed, snapshot)
	})

	return band, nil
}

// Wait blocks until every background notification has finished.
func (s *Service) Wait() {
	s.bg.wait()
}

func (s *Service) checkGate(ctx context.Context, band *models.Band) error {
	blocked, err := s.gate.IsBlocked(ctx, band.Profile.ID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrBandBusy
	}
	return nil
}

// redistribute hands departingShare to the band's remaining members.
func redistribute(band *models.Band, departingShare int) error {
	holders := make([]calculator.Holder, len(band.Members))
	for i, m := range band.Members {
		holders[i] = calculator.Holder{ID: m.UserID, Share: m.Share, IsOwner: m.Role == models.RoleOwner}
	}

	shares, err := calculator.Redistribute(departingShare, holders, models.TotalShare)
	if errors.Is(err, calculator.ErrNoOwner) {
		return fmt.Errorf("%w: band %s", ErrNoOwner, band.ID)
	}
	if err != nil {
		return &Error{Kind: KindInternalConsistency, Msg: err.Error()}
	}

	for i, h := range shares {
		band.Members[i].Share = h.Share
	}
	return nil
}

func (s *Service) notify(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	s.bg.run(ctx, name, fn)
}

func (s *Service) observe(operation string, err error) {
	result := "ok"
	if err != nil {
		result = KindOf(err).String()
	}
	s.metrics.Mutation(operation, result)
}

// bandErr translates a missing band from the store into ErrBandNotFound.
func bandErr(err error) error {
	if KindOf(err) == KindUnknown && errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrBandNotFound, err)
	}
	return err
}
