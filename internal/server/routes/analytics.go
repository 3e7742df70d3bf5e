package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/articles"
	"github.com/hunter-local/newsgraph/pkg/store/graph"
	"github.com/hunter-local/newsgraph/pkg/store/mentions"
	"github.com/hunter-local/newsgraph/pkg/store/partners"
)

// GetAnalyticsOverviewHandler returns top-level counts across the system
func GetAnalyticsOverviewHandler(c echo.Context) error {
	type overviewResponse struct {
		Message     string    `json:"message"`
		Articles    int64     `json:"articles"`
		Entities    int64     `json:"entities"`
		Partners    int64     `json:"partners"`
		Mentions    int64     `json:"mentions"`
		GeneratedAt time.Time `json:"generated_at"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	articleCount, err := articles.New(app.DB, app.DBAdmin).Count(ctx)
	if err != nil {
		logger.Error("Failed to count articles", "err", err)
		return c.JSON(errorStatus(err), overviewResponse{Message: errorMessage(err)})
	}
	entityCount, err := graph.New(app.DB).CountEntities(ctx)
	if err != nil {
		logger.Error("Failed to count entities", "err", err)
		return c.JSON(errorStatus(err), overviewResponse{Message: errorMessage(err)})
	}
	partnerCount, err := partners.New(app.DB).Count(ctx)
	if err != nil {
		logger.Error("Failed to count partners", "err", err)
		return c.JSON(errorStatus(err), overviewResponse{Message: errorMessage(err)})
	}
	mentionCount, err := mentions.New(app.DB).CountTotal(ctx)
	if err != nil {
		logger.Error("Failed to count mentions", "err", err)
		return c.JSON(errorStatus(err), overviewResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, overviewResponse{
		Message:     "Overview computed successfully",
		Articles:    articleCount,
		Entities:    entityCount,
		Partners:    partnerCount,
		Mentions:    mentionCount,
		GeneratedAt: time.Now(),
	})
}

// GetArticleAnalyticsHandler returns article rollups by status and category
func GetArticleAnalyticsHandler(c echo.Context) error {
	type articleAnalyticsResponse struct {
		Message string          `json:"message"`
		Stats   *articles.Stats `json:"stats,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	stats, err := articles.New(app.DB, app.DBAdmin).GetStats(ctx)
	if err != nil {
		logger.Error("Failed to compute article stats", "err", err)
		return c.JSON(errorStatus(err), articleAnalyticsResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, articleAnalyticsResponse{
		Message: "Article analytics computed successfully",
		Stats:   stats,
	})
}
