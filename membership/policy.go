package membership

import (
	"fmt"

	"github.com/santosrp/clanhub/server/model"
)

// Actor is the authenticated identity performing an operation.
// The zero value is the anonymous actor.
type Actor struct {
	ID     int64
	Role   string
	ClanID *int64
}

// ActorFromUser builds an Actor from a stored user row.
func ActorFromUser(u *model.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, ClanID: u.ClanID}
}

// Authenticated reports whether the actor carries a logged-in identity.
func (a Actor) Authenticated() bool {
	return a.ID != 0
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// CanCreateClan reports whether the actor may create a clan.
// Plain members must first be promoted (or found a clan via an admin).
func (a Actor) CanCreateClan() bool {
	return a.Role == model.RoleAdmin || a.Role == model.RoleClanOwner
}

// CanPostAnnouncement reports whether the actor may post announcements.
func (a Actor) CanPostAnnouncement() bool {
	return a.Role == model.RoleAdmin || a.Role == model.RoleClanOwner
}

// CheckManageRequests verifies that the actor may approve or reject join
// requests for the given clan. Admins manage any clan; clan owners only
// their own.
func (a Actor) CheckManageRequests(clanID int64) error {
	if !a.Authenticated() {
		return ErrUnauthorized
	}
	if a.Role == model.RoleAdmin {
		return nil
	}
	if a.Role == model.RoleClanOwner && a.ClanID != nil && *a.ClanID == clanID {
		return nil
	}
	return fmt.Errorf("%w: cannot manage requests for clan %d", ErrForbidden, clanID)
}

// CheckAdmin verifies that the actor holds the admin role.
func (a Actor) CheckAdmin() error {
	if !a.Authenticated() {
		return ErrUnauthorized
	}
	if !a.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}
