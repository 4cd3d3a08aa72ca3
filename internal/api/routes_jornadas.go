package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/handlers"
	"github.com/lvaldez/padron/internal/middleware"
)

func registerJornadaRoutes(api *gin.RouterGroup, deps Dependencies) {
	jornadaHandler := handlers.NewJornadaHandler(deps.Jornadas, deps.Resolver)
	requireJornada := middleware.RequireResource(deps.Resolver, "/jornada")

	jornadas := api.Group("/jornadas", requireJornada)
	{
		jornadas.POST("", jornadaHandler.Create)
		jornadas.GET("", jornadaHandler.ListByFecha)
	}
	api.GET("/socios/:id/jornadas", requireJornada, jornadaHandler.ListBySocio)
	api.GET("/socios/:id/jornadas/resumen", requireJornada, jornadaHandler.Resumen)
}
