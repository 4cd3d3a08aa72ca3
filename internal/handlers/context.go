package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/middleware"
	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/internal/services"
)

// currentUserID returns the authenticated user id placed by the auth middleware.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}

// currentActor builds the service actor for the authenticated user,
// resolving their roles through the permission resolver.
func currentActor(c *gin.Context, resolver *permissions.Resolver) services.Actor {
	userID := currentUserID(c)
	actor := services.Actor{ID: userID}
	if userID == "" || resolver == nil {
		return actor
	}

	set := resolver.Resolve(c.Request.Context(), userID)
	if set != nil {
		actor.Roles = set.Roles()
	}
	return actor
}
