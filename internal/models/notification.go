package models

import (
	"fmt"
	"time"
)

// Application is the client app a notification or device is scoped to.
// Its string value doubles as the broadcast topic name.
type Application string

const (
	ApplicationMusician Application = "musician"
	ApplicationAudience Application = "audience"
)

// Valid reports whether a is a known application.
func (a Application) Valid() bool {
	return a == ApplicationMusician || a == ApplicationAudience
}

// ParseApplication converts a wire value into an Application.
func ParseApplication(s string) (Application, error) {
	app := Application(s)
	if !app.Valid() {
		return "", fmt.Errorf("unknown application %q", s)
	}
	return app, nil
}

// NotificationType categorizes a notification for clients.
type NotificationType string

const (
	NotificationTypeBand           NotificationType = "band"
	NotificationTypePhilanthropist NotificationType = "philanthropist"
	NotificationTypePerformance    NotificationType = "performance"
	NotificationTypeGeneral        NotificationType = "general"
)

// Notification is a message targeted at one user inside one application.
// It is immutable once sent, except for Read.
type Notification struct {
	// ID is assigned by the store on insert.
	ID int64

	// UserID is the recipient.
	UserID string

	Subject string
	Body    string

	Type        NotificationType
	Application Application

	// Timestamp is the UTC send time, stamped once by the dispatcher.
	Timestamp time.Time

	// Read is the only field that changes after the notification is sent.
	Read bool
}

// Device is a push endpoint registered by a user for one application.
// A user may register several devices per application.
type Device struct {
	// ID is the unique identifier for the device (UUID format).
	ID string

	UserID      string
	Application Application

	// Token is the push delivery token.
	Token string

	// CreatedAt is the Unix timestamp when the device was registered.
	CreatedAt int64
}
