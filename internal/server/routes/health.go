package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
)

// DetailedHealthHandler pings the database and reports table counts
func DetailedHealthHandler(c echo.Context) error {
	type detailedHealthResponse struct {
		Message   string           `json:"message"`
		Database  string           `json:"database"`
		Tables    map[string]int64 `json:"tables,omitempty"`
		CheckedAt time.Time        `json:"checked_at"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if err := app.DB.Ping(ctx); err != nil {
		logger.Error("Database ping failed", "err", err)
		return c.JSON(http.StatusServiceUnavailable, detailedHealthResponse{
			Message:   "Database unreachable",
			Database:  "down",
			CheckedAt: time.Now(),
		})
	}

	tables := map[string]int64{}
	for _, table := range []string{
		"articles", "kb_entities", "kb_relationships",
		"business_partners", "article_business_mentions", "content_queue",
	} {
		var count int64
		if err := app.DB.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
			logger.Error("Failed to count table", "table", table, "err", err)
			return c.JSON(http.StatusServiceUnavailable, detailedHealthResponse{
				Message:   "Table check failed",
				Database:  "degraded",
				CheckedAt: time.Now(),
			})
		}
		tables[table] = count
	}

	return c.JSON(http.StatusOK, detailedHealthResponse{
		Message:   "Healthy",
		Database:  "up",
		Tables:    tables,
		CheckedAt: time.Now(),
	})
}
