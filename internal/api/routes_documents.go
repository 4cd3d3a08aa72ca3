package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lvaldez/padron/internal/handlers"
	"github.com/lvaldez/padron/internal/middleware"
)

func registerDocumentRoutes(api *gin.RouterGroup, deps Dependencies) {
	requireDocs := middleware.RequireResource(deps.Resolver, "/partner-documents")

	documentHandler := handlers.NewDocumentHandler(deps.Documents, deps.Resolver)
	docs := api.Group("/socios", requireDocs)
	{
		docs.POST("/:id/documentos", documentHandler.Upload)
		docs.GET("/:id/documentos", documentHandler.ListForSocio)
		docs.PUT("/:id/medido", documentHandler.SetMeasuredState)
		docs.POST("/medido", documentHandler.BulkSetMeasuredState)
	}
	api.DELETE("/documentos/:id", requireDocs, documentHandler.Delete)

	deletionHandler := handlers.NewDeletionRequestHandler(deps.DeletionRequests, deps.Resolver)
	requests := api.Group("/deletion-requests", requireDocs)
	{
		requests.POST("", deletionHandler.Create)
		requests.GET("", deletionHandler.List)
		requests.GET("/pending-count", deletionHandler.PendingCount)
		requests.POST("/:id/resolve", deletionHandler.Resolve)
	}
}
