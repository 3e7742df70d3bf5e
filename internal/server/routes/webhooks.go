package routes

import (
	"encoding/json"
	"net/http"
	"time"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/queue"
	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/articles"
)

// TriggerArticleGenerationHandler hands a queued content item to the
// generation pipeline
func TriggerArticleGenerationHandler(c echo.Context) error {
	type triggerBody struct {
		ContentID int64 `json:"content_id" validate:"required,numeric"`
	}

	type triggerResponse struct {
		Message   string `json:"message"`
		ContentID int64  `json:"content_id,omitempty"`
	}

	data := new(triggerBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, triggerResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, triggerResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App

	payload, _ := json.Marshal(map[string]int64{"content_id": data.ContentID})
	if err := queue.PublishFIFO(app.Queue, queue.GenerationQueue, payload); err != nil {
		logger.Error("Failed to publish generation message", "content_id", data.ContentID, "err", err)
		return c.JSON(http.StatusInternalServerError, triggerResponse{Message: "Internal server error"})
	}

	logger.Info("Article generation triggered", "content_id", data.ContentID)
	return c.JSON(http.StatusAccepted, triggerResponse{
		Message:   "Article generation triggered",
		ContentID: data.ContentID,
	})
}

// TriggerBusinessMentionsHandler queues credit charging for an article's
// verified mentions
func TriggerBusinessMentionsHandler(c echo.Context) error {
	type triggerBody struct {
		ArticleID int64 `json:"article_id" validate:"required,numeric"`
	}

	type triggerResponse struct {
		Message   string `json:"message"`
		ArticleID int64  `json:"article_id,omitempty"`
	}

	data := new(triggerBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, triggerResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, triggerResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App

	payload, _ := json.Marshal(map[string]int64{"article_id": data.ArticleID})
	if err := queue.PublishFIFO(app.Queue, queue.MentionsQueue, payload); err != nil {
		logger.Error("Failed to publish mentions message", "article_id", data.ArticleID, "err", err)
		return c.JSON(http.StatusInternalServerError, triggerResponse{Message: "Internal server error"})
	}

	logger.Info("Mention charging triggered", "article_id", data.ArticleID)
	return c.JSON(http.StatusAccepted, triggerResponse{
		Message:   "Business mention processing triggered",
		ArticleID: data.ArticleID,
	})
}

// ArticlePublishedHandler flips an article's publication flags after the
// external workflow publishes it
func ArticlePublishedHandler(c echo.Context) error {
	type publishedBody struct {
		ArticleID int64 `json:"article_id" validate:"required,numeric"`
	}

	type publishedResponse struct {
		Message string            `json:"message"`
		Article *articles.Article `json:"article,omitempty"`
	}

	data := new(publishedBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, publishedResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, publishedResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	article, err := articles.New(app.DB, app.DBAdmin).MarkPublished(ctx, data.ArticleID)
	if err != nil {
		logger.Error("Failed to mark article published", "article_id", data.ArticleID, "err", err)
		return c.JSON(errorStatus(err), publishedResponse{Message: errorMessage(err)})
	}

	logger.Info("Article published", "article_id", article.ID)
	return c.JSON(http.StatusOK, publishedResponse{
		Message: "Article marked as published",
		Article: article,
	})
}

// WorkflowHealthHandler acknowledges workflow engine heartbeats
func WorkflowHealthHandler(c echo.Context) error {
	type healthBody struct {
		Workflow string `json:"workflow"`
		Status   string `json:"status"`
	}

	type healthResponse struct {
		Message    string    `json:"message"`
		ReceivedAt time.Time `json:"received_at"`
	}

	data := new(healthBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, healthResponse{Message: "Invalid request body"})
	}

	logger.Info("Workflow heartbeat", "workflow", data.Workflow, "status", data.Status)
	return c.JSON(http.StatusOK, healthResponse{
		Message:    "Heartbeat received",
		ReceivedAt: time.Now(),
	})
}
