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
	"github.com/hunter-local/newsgraph/pkg/store/contentqueue"
)

// GetWorkflowStatusHandler reports queue depth per pipeline stage so the
// workflow engine can see backlog at a glance
func GetWorkflowStatusHandler(c echo.Context) error {
	type workflowStatusResponse struct {
		Message   string           `json:"message"`
		Queues    map[string]int64 `json:"queues"`
		CheckedAt time.Time        `json:"checked_at"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	queueStore := contentqueue.New(app.DB)

	counts := map[string]int64{}
	for _, status := range []string{
		contentqueue.StatusPending,
		contentqueue.StatusProcessing,
		contentqueue.StatusDone,
		contentqueue.StatusFailed,
	} {
		items, err := queueStore.List(ctx, contentqueue.Filter{Status: status, Limit: 200})
		if err != nil {
			logger.Error("Failed to inspect queue", "status", status, "err", err)
			return c.JSON(errorStatus(err), workflowStatusResponse{Message: errorMessage(err)})
		}
		counts[status] = int64(len(items))
	}

	return c.JSON(http.StatusOK, workflowStatusResponse{
		Message:   "Workflow status fetched successfully",
		Queues:    counts,
		CheckedAt: time.Now(),
	})
}

// TriggerWorkflowHandler re-queues a failed content item and hands it back
// to the generation pipeline
func TriggerWorkflowHandler(c echo.Context) error {
	type triggerParams struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type triggerResponse struct {
		Message string `json:"message"`
	}

	data := new(triggerParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, triggerResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, triggerResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	// failed → pending, then back onto the generation queue
	if _, err := contentqueue.New(app.DB).UpdateStatus(ctx, data.ID, contentqueue.StatusPending, nil); err != nil {
		logger.Error("Failed to re-queue content", "content_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), triggerResponse{Message: errorMessage(err)})
	}

	payload, _ := json.Marshal(map[string]int64{"content_id": data.ID})
	if err := queue.PublishFIFO(app.Queue, queue.GenerationQueue, payload); err != nil {
		logger.Error("Failed to publish generation message", "content_id", data.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, triggerResponse{Message: "Internal server error"})
	}

	logger.Info("Workflow re-triggered", "content_id", data.ID)
	return c.JSON(http.StatusAccepted, triggerResponse{Message: "Workflow triggered"})
}
