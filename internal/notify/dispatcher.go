// Package notify builds, delivers and records user notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/bandmates/internal/metrics"
	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrInvalidNotification is returned for notifications missing a recipient or application.
var ErrInvalidNotification = errors.New("notification requires a user and an application")

// Store is the persistence the dispatcher needs.
type Store interface {
	storage.DeviceStore
	storage.NotificationStore
}

// Dispatcher fans notifications out to devices and records them.
//
// Delivery is best effort: each device gets one attempt, failures are logged and
// never abort the other devices or the record. Exactly one record is persisted per
// notification, whatever happened to the deliveries.
type Dispatcher struct {
	store   Store
	channel Channel
	metrics *metrics.Metrics
	clock   func() time.Time
}

// NewDispatcher creates a dispatcher. A nil clock defaults to time.Now.
func NewDispatcher(store Store, channel Channel, m *metrics.Metrics, clock func() time.Time) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	return &Dispatcher{
		store:   store,
		channel: channel,
		metrics: m,
		clock:   clock,
	}
}

// Send delivers n to every device of its recipient and persists it.
func (d *Dispatcher) Send(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	if err := validate(n); err != nil {
		return nil, err
	}

	if err := d.push(ctx, n); err != nil {
		return nil, err
	}
	n.Timestamp = d.nowUTC()

	if err := d.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}
	d.metrics.NotificationsPersisted(1)

	return n, nil
}

// SendMultiple delivers every notification, then persists all of them at once.
func (d *Dispatcher) SendMultiple(ctx context.Context, ns []*models.Notification) error {
	for _, n := range ns {
		if err := validate(n); err != nil {
			return err
		}
	}

	for _, n := range ns {
		if err := d.push(ctx, n); err != nil {
			return err
		}
		n.Timestamp = d.nowUTC()
	}

	if err := d.store.CreateNotifications(ctx, ns); err != nil {
		return fmt.Errorf("failed to persist notifications: %w", err)
	}
	d.metrics.NotificationsPersisted(len(ns))

	return nil
}

// SendToTopic broadcasts n on its application's topic and, once accepted,
// stores a copy for every subscribed profile.
func (d *Dispatcher) SendToTopic(ctx context.Context, n *models.Notification) (int, error) {
	if !n.Application.Valid() {
		return 0, ErrInvalidNotification
	}

	topic := string(n.Application)
	err := d.channel.DeliverToTopic(ctx, topic, message(n))
	d.metrics.PushDelivery("topic", err)
	if err != nil {
		return 0, fmt.Errorf("failed to deliver to topic %s: %w", topic, err)
	}
	n.Timestamp = d.nowUTC()

	copies, err := d.store.CreateBroadcastCopies(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("failed to persist broadcast copies: %w", err)
	}
	d.metrics.BroadcastCopies(copies)

	slog.Info("Topic notification sent", "topic", topic, "copies", copies)
	return copies, nil
}

// push attempts every device of n's recipient concurrently and waits for all of them.
// Only the device lookup can fail; delivery errors are logged.
func (d *Dispatcher) push(ctx context.Context, n *models.Notification) error {
	devices, err := d.store.ListDevicesByUser(ctx, n.UserID, n.Application)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	msg := message(n)
	var g errgroup.Group
	for _, device := range devices {
		g.Go(func() error {
			err := d.channel.DeliverToDevice(ctx, device.Token, msg)
			d.metrics.PushDelivery("device", err)
			if err != nil {
				slog.Error("Push notification failed",
					"user_id", n.UserID,
					"device_id", device.ID,
					"title", msg.Title,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Debug("Push fan-out finished", "user_id", n.UserID, "devices", len(devices))
	return nil
}

// ListForUser pages a user's notifications newest first.
func (d *Dispatcher) ListForUser(ctx context.Context, userID string, app models.Application, skip, size int) ([]*models.Notification, int, error) {
	switch {
	case size <= 0:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}
	if skip < 0 {
		skip = 0
	}
	return d.store.ListNotificationsByUser(ctx, userID, app, skip, size)
}

// MarkAllAsRead marks a user's notifications as read; maxID > 0 bounds the update.
func (d *Dispatcher) MarkAllAsRead(ctx context.Context, userID string, app models.Application, maxID int64) error {
	return d.store.MarkAllAsRead(ctx, userID, app, maxID)
}

// UnreadCount returns how many notifications the user has not read yet.
func (d *Dispatcher) UnreadCount(ctx context.Context, userID string, app models.Application) (int, error) {
	return d.store.CountUnread(ctx, userID, app)
}

func (d *Dispatcher) nowUTC() time.Time {
	return d.clock().UTC()
}

func validate(n *models.Notification) error {
	if n == nil || n.UserID == "" || !n.Application.Valid() {
		return ErrInvalidNotification
	}
	return nil
}

func message(n *models.Notification) Message {
	return Message{
		Title: n.Subject,
		Body:  n.Body,
		Data:  map[string]string{"type": string(n.Type)},
	}
}
