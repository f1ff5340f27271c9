package server

import (
	"github.com/doctrace/citegraph/internal/server/middleware"
	"github.com/doctrace/citegraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Document routes
	apiRoutes.GET("/documents", routes.GetDocumentsHandler, middleware.RequirePermission("graph.view:all"))
	apiRoutes.POST("/documents/:id/build", routes.BuildDocumentHandler, middleware.RequirePermission("graph.build"))
	apiRoutes.DELETE("/documents/:id", routes.DeleteDocumentHandler, middleware.RequirePermission("graph.delete"))

	// Graph routes
	apiRoutes.GET("/documents/:id/graph", routes.GetGraphHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/documents/:id/validation", routes.GetValidationHandler, middleware.RequirePermission("graph.view"))

	// Query routes
	apiRoutes.GET("/documents/:id/entities/:type/:entity_id/chunks", routes.GetEntityChunksHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/documents/:id/chunks/:chunk_id/cocited", routes.GetCoCitedHandler, middleware.RequirePermission("graph.view"))
	apiRoutes.GET("/documents/:id/chunks/:chunk_id/enrichment", routes.GetEnrichmentHandler, middleware.RequirePermission("graph.view"))
}
