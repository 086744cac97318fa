// Package policy holds the ticket access rules. Every function is pure: it
// decides from the actor and the resource owner alone and performs no I/O.
package policy

import (
	apperrors "helphub/internal/errors"
	"helphub/internal/model"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID       uint
	Username string
	Role     model.Role
}

// ActorFor builds the actor for a stored user.
func ActorFor(u *model.User) Actor {
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	switch a.Role {
	case model.RoleAdmin:
		return true
	case model.RoleUser:
		return false
	default:
		return false
	}
}

// Authorize decides which of the requested ticket fields the actor may
// write on a ticket owned by ownerID. Admins get every requested field on
// any ticket. Other users get only user_satisfied, and only on their own
// tickets. The returned set may be empty; deciding what an empty set means
// is left to the caller.
func Authorize(actor Actor, ownerID uint, requested model.FieldSet) (model.FieldSet, error) {
	switch actor.Role {
	case model.RoleAdmin:
		return requested.Intersect(model.AllFields), nil
	case model.RoleUser:
		if actor.ID != ownerID {
			return model.NoFields, apperrors.ErrForbidden
		}
		return requested.Intersect(model.OwnerFields), nil
	default:
		return model.NoFields, apperrors.ErrForbidden
	}
}

// CanView reports whether the actor may read a ticket owned by ownerID.
func CanView(actor Actor, ownerID uint) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleUser:
		if actor.ID == ownerID {
			return nil
		}
		return apperrors.ErrForbidden
	default:
		return apperrors.ErrForbidden
	}
}

// ScopeFilter pins a non-admin listing to the actor's own tickets. A
// requested owner filter can narrow an admin listing but never widens a
// user's.
func ScopeFilter(actor Actor, filter model.TicketFilter) model.TicketFilter {
	switch actor.Role {
	case model.RoleAdmin:
		return filter
	case model.RoleUser:
		own := actor.ID
		filter.OwnerID = &own
		return filter
	default:
		// Unknown roles see nothing: id 0 is never assigned.
		none := uint(0)
		filter.OwnerID = &none
		return filter
	}
}

// RequireAdmin guards admin-only operations.
func RequireAdmin(actor Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return apperrors.ErrAdminRequired
}
