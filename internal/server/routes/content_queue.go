package routes

import (
	"net/http"
	"time"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/contentqueue"
)

// GetContentQueueHandler lists queue items
func GetContentQueueHandler(c echo.Context) error {
	type getQueueQuery struct {
		Status string `query:"status" validate:"omitempty,oneof=pending processing done failed"`
		Limit  int    `query:"limit" validate:"omitempty,min=1,max=200"`
		Offset int    `query:"offset" validate:"omitempty,min=0"`
	}

	type getQueueResponse struct {
		Message string              `json:"message"`
		Items   []contentqueue.Item `json:"items,omitempty"`
	}

	data := new(getQueueQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getQueueResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getQueueResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	items, err := contentqueue.New(app.DB).List(ctx, contentqueue.Filter{
		Status: data.Status,
		Limit:  data.Limit,
		Offset: data.Offset,
	})
	if err != nil {
		logger.Error("Failed to list content queue", "err", err)
		return c.JSON(errorStatus(err), getQueueResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getQueueResponse{
		Message: "Queue items fetched successfully",
		Items:   items,
	})
}

// GetContentQueueItemHandler returns one queue item
func GetContentQueueItemHandler(c echo.Context) error {
	type getItemParams struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type getItemResponse struct {
		Message string             `json:"message"`
		Item    *contentqueue.Item `json:"item,omitempty"`
	}

	data := new(getItemParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getItemResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getItemResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	item, err := contentqueue.New(app.DB).Get(ctx, data.ID)
	if err != nil {
		logger.Error("Failed to fetch queue item", "content_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), getItemResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getItemResponse{
		Message: "Queue item fetched successfully",
		Item:    item,
	})
}

// EnqueueContentHandler adds new source content to the queue
func EnqueueContentHandler(c echo.Context) error {
	type enqueueBody struct {
		Title          string     `json:"title" validate:"required"`
		Content        string     `json:"content" validate:"required"`
		SourceURL      string     `json:"source_url"`
		SourceType     string     `json:"source_type"`
		Priority       string     `json:"priority" validate:"omitempty,oneof=low medium high"`
		RelevanceScore float64    `json:"relevance_score" validate:"omitempty,gte=0,lte=1"`
		ScheduledFor   *time.Time `json:"scheduled_for"`
	}

	type enqueueResponse struct {
		Message string             `json:"message"`
		Item    *contentqueue.Item `json:"item,omitempty"`
	}

	data := new(enqueueBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, enqueueResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, enqueueResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	item, err := contentqueue.New(app.DB).Enqueue(ctx, contentqueue.EnqueueParams{
		Title:          data.Title,
		Content:        data.Content,
		SourceURL:      data.SourceURL,
		SourceType:     data.SourceType,
		Priority:       data.Priority,
		RelevanceScore: data.RelevanceScore,
		ScheduledFor:   data.ScheduledFor,
	})
	if err != nil {
		logger.Error("Failed to enqueue content", "err", err)
		return c.JSON(errorStatus(err), enqueueResponse{Message: errorMessage(err)})
	}

	logger.Info("Content enqueued", "content_id", item.ID)
	return c.JSON(http.StatusCreated, enqueueResponse{
		Message: "Content enqueued successfully",
		Item:    item,
	})
}

// DequeueContentHandler returns the next batch of pending items for the
// generation pipeline, most relevant first
func DequeueContentHandler(c echo.Context) error {
	type dequeueBody struct {
		Limit int `json:"limit" validate:"omitempty,min=1,max=50"`
	}

	type dequeueResponse struct {
		Message string              `json:"message"`
		Items   []contentqueue.Item `json:"items"`
	}

	data := new(dequeueBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, dequeueResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, dequeueResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	items, err := contentqueue.New(app.DB).DequeueNext(ctx, data.Limit)
	if err != nil {
		logger.Error("Failed to dequeue content", "err", err)
		return c.JSON(errorStatus(err), dequeueResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, dequeueResponse{
		Message: "Pending content fetched successfully",
		Items:   items,
	})
}

// UpdateContentStatusHandler moves a queue item through its lifecycle
func UpdateContentStatusHandler(c echo.Context) error {
	type updateStatusBody struct {
		ID          int64      `param:"id" validate:"required,numeric"`
		Status      string     `json:"status" validate:"required,oneof=pending processing done failed"`
		ProcessedAt *time.Time `json:"processed_at"`
	}

	type updateStatusResponse struct {
		Message string             `json:"message"`
		Item    *contentqueue.Item `json:"item,omitempty"`
	}

	data := new(updateStatusBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, updateStatusResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, updateStatusResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	item, err := contentqueue.New(app.DB).UpdateStatus(ctx, data.ID, data.Status, data.ProcessedAt)
	if err != nil {
		logger.Error("Failed to update queue item", "content_id", data.ID, "status", data.Status, "err", err)
		return c.JSON(errorStatus(err), updateStatusResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, updateStatusResponse{
		Message: "Queue item updated successfully",
		Item:    item,
	})
}

// DeleteContentHandler removes a queue item
func DeleteContentHandler(c echo.Context) error {
	type deleteItemParams struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type deleteItemResponse struct {
		Message string `json:"message"`
	}

	data := new(deleteItemParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteItemResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteItemResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if err := contentqueue.New(app.DB).Delete(ctx, data.ID); err != nil {
		logger.Error("Failed to delete queue item", "content_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), deleteItemResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, deleteItemResponse{Message: "Queue item deleted successfully"})
}
