package server

import (
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})
	e.GET("/health/detailed", routes.DetailedHealthHandler)

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Article routes
	apiRoutes.GET("/articles", routes.GetArticlesHandler)
	apiRoutes.GET("/articles/:id", routes.GetArticleHandler)
	apiRoutes.POST("/articles", routes.CreateArticleHandler)
	apiRoutes.PATCH("/articles/:id", routes.EditArticleHandler)
	apiRoutes.POST("/articles/:id/image", routes.UploadArticleImageHandler)

	// Knowledge graph routes
	apiRoutes.GET("/knowledge-graph/entities", routes.GetEntitiesHandler)
	apiRoutes.POST("/knowledge-graph/entities", routes.CreateEntityHandler)
	apiRoutes.PATCH("/knowledge-graph/entities/:id", routes.EditEntityHandler)
	apiRoutes.GET("/knowledge-graph/entities/:id/relationships", routes.GetEntityRelationshipsHandler)
	apiRoutes.GET("/knowledge-graph/relationships", routes.GetRelationshipsHandler)
	apiRoutes.POST("/knowledge-graph/relationships", routes.CreateRelationshipHandler)

	// Business partner routes
	apiRoutes.GET("/business-partners", routes.GetPartnersHandler)
	apiRoutes.POST("/business-partners", routes.CreatePartnerHandler)
	apiRoutes.GET("/business-partners/:id/credits", routes.GetPartnerCreditsHandler)
	apiRoutes.POST("/business-partners/:id/credits/debit", routes.DebitCreditsHandler, middleware.RequireAdmin)
	apiRoutes.POST("/business-partners/:id/credits/topup", routes.TopUpCreditsHandler, middleware.RequireAdmin)

	// Mention routes
	apiRoutes.GET("/article-business-mentions", routes.GetMentionsHandler)
	apiRoutes.GET("/article-business-mentions/stats", routes.GetMentionStatsHandler)
	apiRoutes.POST("/article-business-mentions", routes.CreateMentionHandler)
	apiRoutes.PUT("/article-business-mentions/:id", routes.EditMentionHandler)
	apiRoutes.DELETE("/article-business-mentions/:id", routes.DeleteMentionHandler)

	// Content queue routes
	apiRoutes.GET("/content-queue", routes.GetContentQueueHandler)
	apiRoutes.GET("/content-queue/:id", routes.GetContentQueueItemHandler)
	apiRoutes.POST("/content-queue", routes.EnqueueContentHandler)
	apiRoutes.POST("/content-queue/next", routes.DequeueContentHandler)
	apiRoutes.PUT("/content-queue/:id", routes.UpdateContentStatusHandler)
	apiRoutes.DELETE("/content-queue/:id", routes.DeleteContentHandler)

	// Webhook routes for the external workflow engine
	apiRoutes.POST("/webhooks/trigger-article-generation", routes.TriggerArticleGenerationHandler)
	apiRoutes.POST("/webhooks/trigger-business-mentions", routes.TriggerBusinessMentionsHandler)
	apiRoutes.POST("/webhooks/article-published", routes.ArticlePublishedHandler, middleware.RequireAdmin)
	apiRoutes.POST("/webhooks/workflow-health", routes.WorkflowHealthHandler)

	// Workflow routes
	apiRoutes.GET("/workflows/status", routes.GetWorkflowStatusHandler)
	apiRoutes.POST("/workflows/:id/trigger", routes.TriggerWorkflowHandler)

	// Analytics routes
	apiRoutes.GET("/analytics/overview", routes.GetAnalyticsOverviewHandler)
	apiRoutes.GET("/analytics/articles", routes.GetArticleAnalyticsHandler)
}
