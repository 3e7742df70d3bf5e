package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/articles"
)

// EditArticleHandler applies a partial edit to an article
func EditArticleHandler(c echo.Context) error {
	type editArticleBody struct {
		ID                  int64     `param:"id" validate:"required,numeric"`
		Title               *string   `json:"title"`
		Content             *string   `json:"content"`
		Category            *string   `json:"category"`
		Status              *string   `json:"status" validate:"omitempty,oneof=draft published archived"`
		Tags                []string  `json:"tags"`
		VoiceScore          *float64  `json:"voice_score"`
		QualityScore        *float64  `json:"quality_score"`
		RelevanceScore      *float64  `json:"relevance_score"`
		EngagementPotential *float64  `json:"engagement_potential"`
		WordCount           *int      `json:"word_count"`
		ImageURL            *string   `json:"image_url"`
		ImageAltText        *string   `json:"image_alt_text"`
	}

	type editArticleResponse struct {
		Message string            `json:"message"`
		Article *articles.Article `json:"article,omitempty"`
	}

	data := new(editArticleBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, editArticleResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, editArticleResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	article, err := articles.New(app.DB, app.DBAdmin).Update(ctx, data.ID, articles.UpdateArticleParams{
		Title:               data.Title,
		Content:             data.Content,
		Category:            data.Category,
		Status:              data.Status,
		Tags:                data.Tags,
		VoiceScore:          data.VoiceScore,
		QualityScore:        data.QualityScore,
		RelevanceScore:      data.RelevanceScore,
		EngagementPotential: data.EngagementPotential,
		WordCount:           data.WordCount,
		ImageURL:            data.ImageURL,
		ImageAltText:        data.ImageAltText,
	})
	if err != nil {
		logger.Error("Failed to update article", "article_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), editArticleResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, editArticleResponse{
		Message: "Article updated successfully",
		Article: article,
	})
}
