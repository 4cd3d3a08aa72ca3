package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/handlers"
)

func registerAuthRoutes(r *gin.Engine, api *gin.RouterGroup, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions, deps.Resolver)

	// Public
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Authenticated
	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)
}
