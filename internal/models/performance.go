package models

// Performance is a live activity of a profile (typically a band on stage).
// While a performance is active, the band's membership cannot change.
type Performance struct {
	// ID is the unique identifier for the performance (UUID format).
	ID string

	// ProfileID is the performing profile.
	ProfileID string

	// StartedAt is the Unix timestamp when the performance started.
	StartedAt int64

	// EndedAt is the Unix timestamp when the performance ended; zero while active.
	EndedAt int64
}

// Active reports whether the performance is still running.
func (p *Performance) Active() bool {
	return p.EndedAt == 0
}
