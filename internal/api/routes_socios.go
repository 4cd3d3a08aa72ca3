package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/handlers"
	"github.com/lvaldez/padron/internal/middleware"
)

func registerSocioRoutes(api *gin.RouterGroup, deps Dependencies) {
	socioHandler := handlers.NewSocioHandler(deps.Socios, deps.Documents, deps.Resolver)
	requirePeople := middleware.RequireResource(deps.Resolver, "/people")

	socios := api.Group("/socios", requirePeople)
	{
		socios.POST("", socioHandler.Create)
		socios.GET("", socioHandler.List)
		socios.GET("/:id", socioHandler.Get)
		socios.PATCH("/:id", socioHandler.Update)
		socios.DELETE("/:id", socioHandler.Delete)
	}

	// DNI enrichment backs the socio registration form
	if deps.Lookup != nil {
		lookupHandler := handlers.NewLookupHandler(deps.Lookup)
		api.GET("/lookup/dni/:dni", requirePeople, lookupHandler.LookupDNI)
	}
}
