package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/mentions"
)

// GetMentionsHandler lists article-business mentions
func GetMentionsHandler(c echo.Context) error {
	type getMentionsQuery struct {
		ArticleID         *int64 `query:"article_id"`
		BusinessPartnerID *int64 `query:"business_partner_id"`
		Limit             int    `query:"limit" validate:"omitempty,min=1,max=200"`
		Offset            int    `query:"offset" validate:"omitempty,min=0"`
	}

	type getMentionsResponse struct {
		Message  string             `json:"message"`
		Mentions []mentions.Mention `json:"mentions,omitempty"`
	}

	data := new(getMentionsQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getMentionsResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getMentionsResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	list, err := mentions.New(app.DB).List(ctx, mentions.Filter{
		ArticleID:         data.ArticleID,
		BusinessPartnerID: data.BusinessPartnerID,
		Limit:             data.Limit,
		Offset:            data.Offset,
	})
	if err != nil {
		logger.Error("Failed to list mentions", "err", err)
		return c.JSON(errorStatus(err), getMentionsResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getMentionsResponse{
		Message:  "Mentions fetched successfully",
		Mentions: list,
	})
}

// GetMentionStatsHandler returns mention counts and average relevance
// grouped by business type
func GetMentionStatsHandler(c echo.Context) error {
	type getStatsResponse struct {
		Message                string                        `json:"message"`
		TotalMentions          int64                         `json:"totalMentions"`
		MentionsByBusinessType map[string]mentions.TypeStats `json:"mentionsByBusinessType"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	mentionStore := mentions.New(app.DB)

	total, err := mentionStore.CountTotal(ctx)
	if err != nil {
		logger.Error("Failed to count mentions", "err", err)
		return c.JSON(errorStatus(err), getStatsResponse{Message: errorMessage(err)})
	}

	stats, err := mentionStore.StatsByBusinessType(ctx)
	if err != nil {
		logger.Error("Failed to compute mention stats", "err", err)
		return c.JSON(errorStatus(err), getStatsResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getStatsResponse{
		Message:                "Stats computed successfully",
		TotalMentions:          total,
		MentionsByBusinessType: stats,
	})
}

// CreateMentionHandler links an article to a business partner. The pair is
// unique; a second creation for the same pair returns 409
func CreateMentionHandler(c echo.Context) error {
	type createMentionBody struct {
		ArticleID         int64    `json:"article_id" validate:"required,numeric"`
		BusinessPartnerID int64    `json:"business_partner_id" validate:"required,numeric"`
		MentionContext    string   `json:"mention_context"`
		RelevanceScore    *float64 `json:"relevance_score"`
		MentionType       string   `json:"mention_type" validate:"omitempty,oneof=standard featured"`
	}

	type createMentionResponse struct {
		Message string            `json:"message"`
		Mention *mentions.Mention `json:"mention,omitempty"`
	}

	data := new(createMentionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createMentionResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createMentionResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	mention, err := mentions.New(app.DB).Create(ctx, mentions.CreateParams{
		ArticleID:         data.ArticleID,
		BusinessPartnerID: data.BusinessPartnerID,
		MentionContext:    data.MentionContext,
		RelevanceScore:    data.RelevanceScore,
		MentionType:       data.MentionType,
	})
	if err != nil {
		logger.Error("Failed to create mention",
			"article_id", data.ArticleID, "partner_id", data.BusinessPartnerID, "err", err)
		return c.JSON(errorStatus(err), createMentionResponse{Message: errorMessage(err)})
	}

	logger.Info("Mention created", "mention_id", mention.ID)
	return c.JSON(http.StatusCreated, createMentionResponse{
		Message: "Mention created successfully",
		Mention: mention,
	})
}

// EditMentionHandler updates a mention's context, relevance, type or
// verified flag
func EditMentionHandler(c echo.Context) error {
	type editMentionBody struct {
		ID             int64    `param:"id" validate:"required,numeric"`
		MentionContext *string  `json:"mention_context"`
		RelevanceScore *float64 `json:"relevance_score"`
		MentionType    *string  `json:"mention_type"`
		Verified       *bool    `json:"verified"`
	}

	type editMentionResponse struct {
		Message string            `json:"message"`
		Mention *mentions.Mention `json:"mention,omitempty"`
	}

	data := new(editMentionBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editMentionResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editMentionResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	mention, err := mentions.New(app.DB).Update(ctx, data.ID, mentions.UpdateParams{
		MentionContext: data.MentionContext,
		RelevanceScore: data.RelevanceScore,
		MentionType:    data.MentionType,
		Verified:       data.Verified,
	})
	if err != nil {
		logger.Error("Failed to update mention", "mention_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), editMentionResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, editMentionResponse{
		Message: "Mention updated successfully",
		Mention: mention,
	})
}

// DeleteMentionHandler removes a mention
func DeleteMentionHandler(c echo.Context) error {
	type deleteMentionParams struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type deleteMentionResponse struct {
		Message string `json:"message"`
	}

	data := new(deleteMentionParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteMentionResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deleteMentionResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if err := mentions.New(app.DB).Delete(ctx, data.ID); err != nil {
		logger.Error("Failed to delete mention", "mention_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), deleteMentionResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, deleteMentionResponse{Message: "Mention deleted successfully"})
}
