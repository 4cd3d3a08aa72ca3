package services

import "github.com/lvaldez/padron/internal/models"

// Actor identifies the authenticated user performing a service operation
// together with the roles resolved for them.
type Actor struct {
	ID    string
	Roles []string
}

// HasRole reports whether the actor holds the given role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.HasRole(models.RoleAdmin)
}
