package calculator

import (
	"errors"
	"fmt"
)

// ErrNoOwner is returned when a remainder has no owner to be credited to.
var ErrNoOwner = errors.New("no owner among remaining members")

// Holder is one remaining member's share as seen by the redistribution.
type Holder struct {
	ID      string
	Share   int
	IsOwner bool
}

// Split returns the uniform per-member increment for a departing share.
// It is floor(departingShare / remainingCount), or 0 when there is nobody to split with.
func Split(departingShare, remainingCount int) int {
	if departingShare <= 0 || remainingCount <= 0 {
		return 0
	}
	return departingShare / remainingCount
}

// Redistribute spreads a departing member's share over the remaining holders.
//
// Every holder receives Split(departingShare, len(holders)); whatever is then missing
// to reach total goes entirely to the owner. The result is a new slice in the same
// order as holders; holders itself is not modified.
//
// With no departing share or no remaining holders the shares are returned unchanged
// (an empty band simply drops the departing share).
func Redistribute(departingShare int, holders []Holder, total int) ([]Holder, error) {
	out := make([]Holder, len(holders))
	copy(out, holders)
	if departingShare <= 0 || len(out) == 0 {
		return out, nil
	}

	owner := -1
	for i, h := range out {
		if h.IsOwner {
			if owner >= 0 {
				return nil, fmt.Errorf("multiple owners: %s and %s", out[owner].ID, h.ID)
			}
			owner = i
		}
	}
	if owner < 0 {
		return nil, ErrNoOwner
	}

	split := Split(departingShare, len(out))
	sum := 0
	for i := range out {
		out[i].Share += split
		sum += out[i].Share
	}
	out[owner].Share += total - sum

	return out, nil
}
