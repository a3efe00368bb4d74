package models

// PatronRequestStatus is the lifecycle state of a philanthropist request.
type PatronRequestStatus string

const (
	PatronRequestPending  PatronRequestStatus = "pending"
	PatronRequestAccepted PatronRequestStatus = "accepted"
	PatronRequestRejected PatronRequestStatus = "rejected"
)

// Terminal reports whether the status is a final resolution.
func (s PatronRequestStatus) Terminal() bool {
	return s == PatronRequestAccepted || s == PatronRequestRejected
}

// PatronRequest is an audience user's request to become a philanthropist.
type PatronRequest struct {
	// ID is the unique identifier for the request (UUID format).
	ID string

	// UserID is the requesting user.
	UserID string

	Status PatronRequestStatus

	// RejectionReason is set when Status is PatronRequestRejected.
	RejectionReason string

	// CreatedAt is the Unix timestamp when the request was filed.
	CreatedAt int64
}
