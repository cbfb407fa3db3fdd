// Package access holds the caller identity and the authorization predicates
// every service evaluates before touching data.
package access

import (
	"zenith/internal/models"
)

// Identity is the authenticated caller. A nil *Identity is an anonymous caller.
type Identity struct {
	UserID   uint
	Username string
	Role     models.Role
}

// IsAuthenticated reports whether the identity represents a signed-in user.
func (i *Identity) IsAuthenticated() bool {
	return i != nil && i.UserID != 0
}

// HasRole reports whether the identity carries one of roles.
func (i *Identity) HasRole(roles ...models.Role) bool {
	if !i.IsAuthenticated() {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// IsModerator is true for MODERATOR and ADMIN.
func (i *Identity) IsModerator() bool {
	return i.HasRole(models.RoleModerator, models.RoleAdmin)
}

// IsAdmin is true for ADMIN.
func (i *Identity) IsAdmin() bool {
	return i.HasRole(models.RoleAdmin)
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
	// Anonymous marks a denial caused by a missing identity rather than
	// insufficient privileges.
	Anonymous bool
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

func denyAnonymous() Decision {
	return Decision{Reason: "authentication required", Anonymous: true}
}

// Err converts a denial into an AppError: UNAUTHORIZED for anonymous callers,
// FORBIDDEN otherwise. An allowed decision yields nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Anonymous {
		return models.NewUnauthorizedError(d.Reason)
	}
	return models.NewForbiddenError(d.Reason)
}

// RequireAuthenticated allows any signed-in caller.
func RequireAuthenticated(actor *Identity) Decision {
	if !actor.IsAuthenticated() {
		return denyAnonymous()
	}
	return allow
}

// CanModify decides whether actor may edit or delete content owned by ownerID.
// Owners, moderators and admins may.
func CanModify(actor *Identity, ownerID uint) Decision {
	if !actor.IsAuthenticated() {
		return denyAnonymous()
	}
	if actor.UserID == ownerID {
		return allow
	}
	if actor.IsModerator() {
		return allow
	}
	return deny("you do not have permission to modify this resource")
}

// CanViewPost decides whether actor may read post. Published posts are
// public; anything else is limited to those who could modify it.
func CanViewPost(actor *Identity, post *models.Post) Decision {
	if post.IsPublished() {
		return allow
	}
	d := CanModify(actor, post.AuthorID)
	if !d.Allowed && !d.Anonymous {
		d.Reason = "post is not published"
	}
	return d
}

// CanModerate allows moderators and admins.
func CanModerate(actor *Identity) Decision {
	if !actor.IsAuthenticated() {
		return denyAnonymous()
	}
	if actor.IsModerator() {
		return allow
	}
	return deny("moderator role required")
}

// CanAdminister allows admins only.
func CanAdminister(actor *Identity) Decision {
	if !actor.IsAuthenticated() {
		return denyAnonymous()
	}
	if actor.IsAdmin() {
		return allow
	}
	return deny("admin role required")
}
