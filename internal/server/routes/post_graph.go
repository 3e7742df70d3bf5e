package routes

import (
	"net/http"
	"time"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/graph"
)

// CreateEntityHandler creates a knowledge graph entity
func CreateEntityHandler(c echo.Context) error {
	type createEntityBody struct {
		Name            string         `json:"name" validate:"required"`
		Type            string         `json:"type" validate:"required"`
		Description     string         `json:"description"`
		Attributes      map[string]any `json:"attributes"`
		Embedding       []float32      `json:"embedding"`
		ConfidenceScore *float64       `json:"confidence_score"`
	}

	type createEntityResponse struct {
		Message string        `json:"message"`
		Entity  *graph.Entity `json:"entity,omitempty"`
	}

	data := new(createEntityBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createEntityResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createEntityResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	entity, err := graph.New(app.DB).CreateEntity(ctx, graph.CreateEntityParams{
		Name:            data.Name,
		Type:            data.Type,
		Description:     data.Description,
		Attributes:      data.Attributes,
		Embedding:       data.Embedding,
		ConfidenceScore: data.ConfidenceScore,
	})
	if err != nil {
		logger.Error("Failed to create entity", "err", err)
		return c.JSON(errorStatus(err), createEntityResponse{Message: errorMessage(err)})
	}

	logger.Info("Entity created", "entity_id", entity.ID, "type", entity.Type)
	return c.JSON(http.StatusCreated, createEntityResponse{
		Message: "Entity created successfully",
		Entity:  entity,
	})
}

// EditEntityHandler re-scores an entity or enriches its attributes
func EditEntityHandler(c echo.Context) error {
	type editEntityBody struct {
		ID              int64          `param:"id" validate:"required,numeric"`
		Description     *string        `json:"description"`
		Attributes      map[string]any `json:"attributes"`
		Embedding       []float32      `json:"embedding"`
		ConfidenceScore *float64       `json:"confidence_score"`
	}

	type editEntityResponse struct {
		Message string        `json:"message"`
		Entity  *graph.Entity `json:"entity,omitempty"`
	}

	data := new(editEntityBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editEntityResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editEntityResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	entity, err := graph.New(app.DB).UpdateEntity(ctx, data.ID, graph.UpdateEntityParams{
		Description:     data.Description,
		Attributes:      data.Attributes,
		Embedding:       data.Embedding,
		ConfidenceScore: data.ConfidenceScore,
	})
	if err != nil {
		logger.Error("Failed to update entity", "entity_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), editEntityResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, editEntityResponse{
		Message: "Entity updated successfully",
		Entity:  entity,
	})
}

// CreateRelationshipHandler creates a directed edge between two entities
func CreateRelationshipHandler(c echo.Context) error {
	type createRelationshipBody struct {
		SourceEntityID   int64          `json:"source_entity_id" validate:"required,numeric"`
		TargetEntityID   int64          `json:"target_entity_id" validate:"required,numeric"`
		RelationshipType string         `json:"relationship_type" validate:"required"`
		Strength         *float64       `json:"strength"`
		Context          string         `json:"context"`
		TemporalStart    *time.Time     `json:"temporal_start"`
		TemporalEnd      *time.Time     `json:"temporal_end"`
		Attributes       map[string]any `json:"attributes"`
	}

	type createRelationshipResponse struct {
		Message      string              `json:"message"`
		Relationship *graph.Relationship `json:"relationship,omitempty"`
	}

	data := new(createRelationshipBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRelationshipResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRelationshipResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	relationship, err := graph.New(app.DB).CreateRelationship(ctx, graph.CreateRelationshipParams{
		SourceEntityID:   data.SourceEntityID,
		TargetEntityID:   data.TargetEntityID,
		RelationshipType: data.RelationshipType,
		Strength:         data.Strength,
		Context:          data.Context,
		TemporalStart:    data.TemporalStart,
		TemporalEnd:      data.TemporalEnd,
		Attributes:       data.Attributes,
	})
	if err != nil {
		logger.Error("Failed to create relationship", "err", err)
		return c.JSON(errorStatus(err), createRelationshipResponse{Message: errorMessage(err)})
	}

	logger.Info("Relationship created",
		"relationship_id", relationship.ID,
		"source", relationship.SourceEntityID,
		"target", relationship.TargetEntityID,
	)
	return c.JSON(http.StatusCreated, createRelationshipResponse{
		Message:      "Relationship created successfully",
		Relationship: relationship,
	})
}
