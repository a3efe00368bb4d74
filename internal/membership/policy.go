package membership

import "github.com/mmynk/bandmates/internal/models"

// CanAdd reports whether a member holding requesterRole may add users to the band.
func CanAdd(requesterRole models.Role) bool {
	return requesterRole == models.RoleOwner || requesterRole == models.RoleAdmin
}

// CanUpdateRole decides whether requesterRole may move a member from targetRole to requestedRole.
// Owners are never edited through this path; only the owner may hand ownership over.
func CanUpdateRole(requesterRole, targetRole, requestedRole models.Role) error {
	if targetRole == models.RoleOwner {
		return ErrOwnerImmutable
	}
	if !requestedRole.Valid() {
		return ErrInvalidRole
	}
	if requestedRole == models.RoleOwner && requesterRole != models.RoleOwner {
		return ErrOwnershipTransfer
	}
	if !CanAdd(requesterRole) {
		return ErrInsufficientRole
	}
	return nil
}

// CanRemove decides whether a requester may remove a member holding targetRole.
// Members may always leave on their own, except the owner who must hand over first.
func CanRemove(requesterRole models.Role, requesterIsTarget bool, targetRole models.Role) error {
	if targetRole == models.RoleOwner {
		return ErrOwnerRemoval
	}
	if requesterIsTarget || requesterRole == models.RoleOwner || requesterRole == models.RoleAdmin {
		return nil
	}
	return ErrInsufficientRole
}

// ApplyRole sets target's role inside band.
// Promoting to owner demotes the current owner to admin in the same step,
// so the band never holds zero or two owners.
func ApplyRole(band *models.Band, target *models.Member, role models.Role) {
	if role == models.RoleOwner {
		if owner := band.Owner(); owner != nil && owner != target {
			owner.Role = models.RoleAdmin
		}
	}
	target.Role = role
}
