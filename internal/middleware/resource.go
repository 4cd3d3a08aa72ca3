package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/permissions"
	"github.com/lvaldez/padron/pkg/errors"
	"github.com/lvaldez/padron/pkg/metrics"
	"github.com/lvaldez/padron/pkg/response"
)

// RequireResource checks that the authenticated user may access the given
// resource path. Unknown or unresolvable principals are denied.
func RequireResource(resolver *permissions.Resolver, resourcePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUserIDKey)
		if !ok {
			metrics.ResourceChecks.WithLabelValues(resourcePath, "unresolved").Inc()
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, _ := v.(string)

		set := resolver.Resolve(c.Request.Context(), userID)
		if !permissions.IsAuthorized(set, resourcePath) {
			metrics.ResourceChecks.WithLabelValues(resourcePath, "denied").Inc()
			response.Error(c, errors.ErrPermissionDenied.WithMessage(
				fmt.Sprintf("access denied for resource %s", resourcePath)))
			c.Abort()
			return
		}

		metrics.ResourceChecks.WithLabelValues(resourcePath, "allowed").Inc()
		c.Next()
	}
}

// RequireRole restricts a route to users holding one of the given roles.
func RequireRole(resolver *permissions.Resolver, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUserIDKey)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, _ := v.(string)

		set := resolver.Resolve(c.Request.Context(), userID)
		for _, role := range roles {
			if set.HasRole(role) {
				c.Next()
				return
			}
		}

		response.Error(c, errors.ErrPermissionDenied)
		c.Abort()
	}
}
