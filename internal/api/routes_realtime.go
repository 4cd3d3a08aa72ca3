package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/handlers"
)

func registerRealtimeRoutes(api *gin.RouterGroup, deps Dependencies) {
	if deps.Hub == nil {
		return
	}
	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub, deps.Resolver)
	api.GET("/ws", realtimeHandler.Serve)
}
