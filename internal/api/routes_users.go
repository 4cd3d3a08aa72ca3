package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/handlers"
	"github.com/lvaldez/padron/internal/middleware"
)

func registerUserRoutes(api *gin.RouterGroup, deps Dependencies) {
	userHandler := handlers.NewUserHandler(deps.Users, deps.Resolver)
	requireSettings := middleware.RequireResource(deps.Resolver, "/settings")

	users := api.Group("/users", requireSettings)
	{
		users.POST("", userHandler.Create)
		users.GET("", userHandler.List)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id/roles", userHandler.AssignRoles)
		users.PUT("/:id/active", userHandler.SetActive)
	}

	roles := api.Group("/roles", requireSettings)
	{
		roles.PUT("/:id/resources", userHandler.SetResourcePermission)
		roles.GET("/:id/resources", userHandler.ListResourcePermissions)
	}
}
