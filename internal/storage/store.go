// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/bandmates/internal/models"
)

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicts with a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// MutateFunc changes a loaded band in place.
// It reports whether the band changed; an unchanged band is not written back.
// Returning an error aborts the mutation and nothing is persisted.
type MutateFunc func(ctx context.Context, band *models.Band) (changed bool, err error)

// BandStore persists bands and their member sets.
type BandStore interface {
	// CreateBand persists a new band with its profile and initial members.
	// Empty IDs and CreatedAt are populated by the store.
	CreateBand(ctx context.Context, band *models.Band) error

	// GetBandByKey retrieves a band, with members, by its profile handle.
	// Returns ErrNotFound if no band has that handle.
	GetBandByKey(ctx context.Context, key string) (*models.Band, error)

	// ListBandsByUser returns the bands userID is a member of, ordered by name.
	ListBandsByUser(ctx context.Context, userID string) ([]*models.Band, error)

	// UpdateBand loads the band identified by key and runs mutate against it.
	// Calls for the same band are serialized; calls for different bands are not.
	// When mutate reports a change, the whole member set is committed in one transaction.
	// Returns the band as left by mutate, or ErrNotFound if the band does not exist.
	UpdateBand(ctx context.Context, key string, mutate MutateFunc) (*models.Band, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUserByHandle looks a user up by profile handle (case-insensitive).
	// Returns ErrNotFound if no user has that handle.
	GetUserByHandle(ctx context.Context, handle string) (*models.User, error)
}

// PerformanceStore answers whether a profile is currently performing.
type PerformanceStore interface {
	// GetActivePerformance returns the running performance of profileID.
	// Returns ErrNotFound if the profile is not performing.
	GetActivePerformance(ctx context.Context, profileID string) (*models.Performance, error)
	StartPerformance(ctx context.Context, performance *models.Performance) error
	EndPerformance(ctx context.Context, performanceID string) error
}

// DeviceStore persists push endpoints.
type DeviceStore interface {
	RegisterDevice(ctx context.Context, device *models.Device) error

	// ListDevicesByUser returns every device of userID scoped to app.
	ListDevicesByUser(ctx context.Context, userID string, app models.Application) ([]*models.Device, error)
}

// NotificationStore persists notification records.
// Record IDs are assigned on insert.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	CreateNotifications(ctx context.Context, ns []*models.Notification) error

	// CreateBroadcastCopies stores one copy of n for every profile subscribed to
	// n.Application and returns how many copies were written.
	CreateBroadcastCopies(ctx context.Context, n *models.Notification) (int, error)

	// Subscribe registers profileID as a recipient of app broadcasts.
	Subscribe(ctx context.Context, profileID string, app models.Application) error

	// ListNotificationsByUser pages a user's notifications newest first.
	ListNotificationsByUser(ctx context.Context, userID string, app models.Application, skip, size int) ([]*models.Notification, int, error)

	// MarkAllAsRead marks userID's notifications in app as read.
	// A non-zero maxID limits the update to notifications with ID <= maxID.
	MarkAllAsRead(ctx context.Context, userID string, app models.Application, maxID int64) error

	CountUnread(ctx context.Context, userID string, app models.Application) (int, error)
}

// PatronRequestStore persists philanthropist requests.
type PatronRequestStore interface {
	CreatePatronRequest(ctx context.Context, request *models.PatronRequest) error
	GetPatronRequest(ctx context.Context, id string) (*models.PatronRequest, error)

	// UpdatePatronRequestStatus resolves a pending request.
	// Returns ErrConflict if it is no longer pending and ErrNotFound if it does not exist.
	UpdatePatronRequestStatus(ctx context.Context, request *models.PatronRequest) error
}

// Store aggregates every repository. This abstraction allows swapping storage
// backends (SQLite, PostgreSQL, etc.) without changing the service layer.
type Store interface {
	BandStore
	UserStore
	PerformanceStore
	DeviceStore
	NotificationStore
	PatronRequestStore

	// Close releases any resources held by the store.
	Close() error
}
