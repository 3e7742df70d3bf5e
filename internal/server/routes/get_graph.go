package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/graph"
)

// GetEntitiesHandler lists entities, by filter or by embedding similarity
func GetEntitiesHandler(c echo.Context) error {
	type getEntitiesBody struct {
		Type      string    `query:"type" json:"type"`
		Search    string    `query:"search" json:"search"`
		Embedding []float32 `json:"embedding"`
		Threshold float64   `json:"threshold" validate:"omitempty,gte=0,lte=1"`
		Limit     int       `query:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
	}

	type getEntitiesResponse struct {
		Message  string         `json:"message"`
		Entities []graph.Entity `json:"entities,omitempty"`
	}

	data := new(getEntitiesBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getEntitiesResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getEntitiesResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	entities, err := graph.New(app.DB).GetEntities(ctx, graph.EntityFilter{
		Type:      data.Type,
		Search:    data.Search,
		Embedding: data.Embedding,
		Threshold: data.Threshold,
		Limit:     data.Limit,
	})
	if err != nil {
		logger.Error("Failed to fetch entities", "err", err)
		return c.JSON(errorStatus(err), getEntitiesResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getEntitiesResponse{
		Message:  "Entities fetched successfully",
		Entities: entities,
	})
}

// GetEntityRelationshipsHandler returns every edge touching an entity
func GetEntityRelationshipsHandler(c echo.Context) error {
	type getEntityRelationshipsParams struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type getEntityRelationshipsResponse struct {
		Message       string               `json:"message"`
		Relationships []graph.Relationship `json:"relationships,omitempty"`
	}

	data := new(getEntityRelationshipsParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getEntityRelationshipsResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getEntityRelationshipsResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	store := graph.New(app.DB)
	if _, err := store.GetEntityByID(ctx, data.ID); err != nil {
		return c.JSON(errorStatus(err), getEntityRelationshipsResponse{Message: errorMessage(err)})
	}

	relationships, err := store.GetRelationshipsForEntity(ctx, data.ID)
	if err != nil {
		logger.Error("Failed to fetch relationships", "entity_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), getEntityRelationshipsResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getEntityRelationshipsResponse{
		Message:       "Relationships fetched successfully",
		Relationships: relationships,
	})
}

// GetRelationshipsHandler lists edges with optional source/target/type filter
func GetRelationshipsHandler(c echo.Context) error {
	type getRelationshipsQuery struct {
		SourceEntityID *int64 `query:"source_entity_id"`
		TargetEntityID *int64 `query:"target_entity_id"`
		Type           string `query:"type"`
		Limit          int    `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	type getRelationshipsResponse struct {
		Message       string               `json:"message"`
		Relationships []graph.Relationship `json:"relationships,omitempty"`
	}

	data := new(getRelationshipsQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getRelationshipsResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getRelationshipsResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	relationships, err := graph.New(app.DB).ListRelationships(ctx, graph.RelationshipFilter{
		SourceEntityID: data.SourceEntityID,
		TargetEntityID: data.TargetEntityID,
		Type:           data.Type,
		Limit:          data.Limit,
	})
	if err != nil {
		logger.Error("Failed to fetch relationships", "err", err)
		return c.JSON(errorStatus(err), getRelationshipsResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getRelationshipsResponse{
		Message:       "Relationships fetched successfully",
		Relationships: relationships,
	})
}
