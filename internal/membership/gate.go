package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/bandmates/internal/models"
	"github.com/mmynk/bandmates/internal/storage"
)

// Gate tells whether a band is currently performing.
type Gate interface {
	IsBlocked(ctx context.Context, bandProfileID string) (bool, error)
}

// PerformanceLookup finds the running performance of a profile.
type PerformanceLookup interface {
	GetActivePerformance(ctx context.Context, profileID string) (*models.Performance, error)
}

// PerformanceGate blocks membership mutations while the band's profile has an active performance.
type PerformanceGate struct {
	performances PerformanceLookup
}

// NewPerformanceGate creates a gate backed by performances.
func NewPerformanceGate(performances PerformanceLookup) *PerformanceGate {
	return &PerformanceGate{performances: performances}
}

// IsBlocked reports whether bandProfileID is performing right now.
// Lookup failures are returned so callers fail closed.
func (g *PerformanceGate) IsBlocked(ctx context.Context, bandProfileID string) (bool, error) {
	p, err := g.performances.GetActivePerformance(ctx, bandProfileID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check active performance: %w", err)
	}
	return p != nil && p.Active(), nil
}
