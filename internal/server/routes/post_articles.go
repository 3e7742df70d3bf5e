package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/internal/storage"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/articles"
)

// CreateArticleHandler creates a new draft article
func CreateArticleHandler(c echo.Context) error {
	type createArticleBody struct {
		Title               string   `json:"title" validate:"required"`
		Content             string   `json:"content" validate:"required"`
		Category            string   `json:"category"`
		Status              string   `json:"status" validate:"omitempty,oneof=draft published archived"`
		Tags                []string `json:"tags"`
		VoiceScore          float64  `json:"voice_score"`
		QualityScore        float64  `json:"quality_score"`
		RelevanceScore      float64  `json:"relevance_score"`
		EngagementPotential float64  `json:"engagement_potential"`
		WordCount           *int     `json:"word_count"`
		SourceURL           string   `json:"source_url"`
		SourceTitle         string   `json:"source_title"`
		SourceDescription   string   `json:"source_description"`
		ImageURL            string   `json:"image_url"`
		ImageAltText        string   `json:"image_alt_text"`
	}

	type createArticleResponse struct {
		Message string            `json:"message"`
		Article *articles.Article `json:"article,omitempty"`
	}

	data := new(createArticleBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createArticleResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createArticleResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	article, err := articles.New(app.DB, app.DBAdmin).Create(ctx, articles.CreateArticleParams{
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
		SourceURL:           data.SourceURL,
		SourceTitle:         data.SourceTitle,
		SourceDescription:   data.SourceDescription,
		ImageURL:            data.ImageURL,
		ImageAltText:        data.ImageAltText,
	})
	if err != nil {
		logger.Error("Failed to create article", "err", err)
		return c.JSON(errorStatus(err), createArticleResponse{Message: errorMessage(err)})
	}

	logger.Info("Article created", "article_id", article.ID, "word_count", article.WordCount)
	return c.JSON(http.StatusCreated, createArticleResponse{
		Message: "Article created successfully",
		Article: article,
	})
}

// UploadArticleImageHandler stores an article image in S3 and records its
// public link on the article
func UploadArticleImageHandler(c echo.Context) error {
	type uploadImageParams struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type uploadImageResponse struct {
		Message  string `json:"message"`
		ImageURL string `json:"image_url,omitempty"`
	}

	data := new(uploadImageParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, uploadImageResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, uploadImageResponse{Message: "Invalid request"})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadImageResponse{Message: "Missing image file"})
	}
	altText := c.FormValue("alt_text")

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadImageResponse{Message: "Could not read image file"})
	}
	defer file.Close()

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	key, err := gonanoid.New()
	if err != nil {
		logger.Error("Failed to generate object key", "err", err)
		return c.JSON(http.StatusInternalServerError, uploadImageResponse{Message: "Internal server error"})
	}

	objectKey, err := storage.PutFile(ctx, app.S3, "articles", fileHeader.Filename, key, file)
	if err != nil {
		logger.Error("Failed to upload article image", "article_id", data.ID, "err", err)
		return c.JSON(http.StatusInternalServerError, uploadImageResponse{Message: "Internal server error"})
	}

	link, err := storage.GenerateDownloadLink(ctx, app.S3, objectKey)
	if err != nil {
		logger.Error("Failed to generate image link", "key", objectKey, "err", err)
		return c.JSON(http.StatusInternalServerError, uploadImageResponse{Message: "Internal server error"})
	}

	if err := articles.New(app.DB, app.DBAdmin).SetImage(ctx, data.ID, link, altText); err != nil {
		logger.Error("Failed to record article image", "article_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), uploadImageResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, uploadImageResponse{
		Message:  "Image uploaded successfully",
		ImageURL: link,
	})
}
