package models

import (
	"fmt"
	"strings"
)

// TotalShare is the sum of all members' shares in a stable band.
const TotalShare = 100

// Role is a member's standing inside a band.
type Role string

const (
	// RoleNone is the role of a user that is not part of the band.
	RoleNone   Role = ""
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// ParseRole converts a wire value ("owner", "Admin", ...) into a Role.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Profile is the public identity of a user or a band.
type Profile struct {
	// ID is the unique identifier for the profile (UUID format).
	ID string

	// Handle is the unique human-readable name used for lookups (e.g., "the-beatles").
	// Lookups by handle are case-insensitive.
	Handle string
}

// ValidHandle reports whether handle is 3-30 letters, digits, '.', '_' or '-'.
// Users and bands share one handle namespace, so both follow this rule.
func ValidHandle(handle string) bool {
	if len(handle) < 3 || len(handle) > 30 {
		return false
	}
	for _, r := range handle {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}

// Band is a group of users sharing revenue.
// The band exclusively owns its Members; deleting the band deletes them.
type Band struct {
	// ID is the unique identifier for the band (UUID format).
	ID string

	// Name is the display name of the band.
	Name string

	// Profile is the band's public identity. Profile.Handle is the band key.
	Profile Profile

	// Members is the unordered member set. A user appears at most once.
	Members []*Member

	// CreatedAt is the Unix timestamp when the band was created.
	CreatedAt int64
}

// Member is a user's participation record inside a band.
type Member struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string

	// BandID is the band this membership belongs to.
	BandID string

	// UserID references the member's user. The band does not own the user.
	UserID string

	// Handle is the user's profile handle, loaded with the member.
	Handle string

	// Role is the member's role inside the band.
	Role Role

	// Share is the member's revenue percentage (0-100).
	Share int

	// JoinedAt is the Unix timestamp when the user joined the band.
	JoinedAt int64
}

// MemberByUserID returns the member referencing userID, or nil.
func (b *Band) MemberByUserID(userID string) *Member {
	for _, m := range b.Members {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}

// MemberByHandle returns the member whose user handle matches handle (case-insensitive), or nil.
func (b *Band) MemberByHandle(handle string) *Member {
	for _, m := range b.Members {
		if strings.EqualFold(m.Handle, handle) {
			return m
		}
	}
	return nil
}

// RoleOf returns the role userID holds in the band, RoleNone when not a member.
func (b *Band) RoleOf(userID string) Role {
	if m := b.MemberByUserID(userID); m != nil {
		return m.Role
	}
	return RoleNone
}

// Owner returns the member holding RoleOwner, or nil.
func (b *Band) Owner() *Member {
	for _, m := range b.Members {
		if m.Role == RoleOwner {
			return m
		}
	}
	return nil
}

// ShareSum returns the sum of all members' shares.
func (b *Band) ShareSum() int {
	sum := 0
	for _, m := range b.Members {
		sum += m.Share
	}
	return sum
}

// Detach removes the member referencing userID from the member set and returns it.
// The returned member stays valid after the band is saved.
func (b *Band) Detach(userID string) *Member {
	for i, m := range b.Members {
		if m.UserID == userID {
			b.Members = append(b.Members[:i:i], b.Members[i+1:]...)
			return m
		}
	}
	return nil
}

// Clone returns a deep copy of the band.
func (b *Band) Clone() *Band {
	c := *b
	c.Members = make([]*Member, len(b.Members))
	for i, m := range b.Members {
		mc := *m
		c.Members[i] = &mc
	}
	return &c
}
