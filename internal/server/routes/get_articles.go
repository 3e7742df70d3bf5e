package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/articles"
)

// GetArticlesHandler lists articles with filtering, sorting and pagination
func GetArticlesHandler(c echo.Context) error {
	type getArticlesQuery struct {
		Status    string `query:"status" validate:"omitempty,oneof=draft published archived"`
		Category  string `query:"category"`
		Published *bool  `query:"published"`
		SortBy    string `query:"sort_by"`
		SortOrder string `query:"sort_order" validate:"omitempty,oneof=asc desc"`
		Page      int    `query:"page" validate:"omitempty,min=1"`
		Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	type getArticlesResponse struct {
		Message string                `json:"message"`
		Page    *articles.ArticlePage `json:"data,omitempty"`
	}

	data := new(getArticlesQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getArticlesResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getArticlesResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	page, err := articles.New(app.DB, app.DBAdmin).List(ctx, articles.ArticleFilter{
		Status:    data.Status,
		Category:  data.Category,
		Published: data.Published,
		SortBy:    data.SortBy,
		SortOrder: data.SortOrder,
		Page:      data.Page,
		Limit:     data.Limit,
	})
	if err != nil {
		logger.Error("Failed to list articles", "err", err)
		return c.JSON(errorStatus(err), getArticlesResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getArticlesResponse{
		Message: "Articles fetched successfully",
		Page:    page,
	})
}

// GetArticleHandler returns one article with its partner mentions
func GetArticleHandler(c echo.Context) error {
	type getArticleParams struct {
		ID int64 `param:"id" validate:"required,numeric"`
	}

	type getArticleResponse struct {
		Message string            `json:"message"`
		Article *articles.Article `json:"article,omitempty"`
	}

	data := new(getArticleParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getArticleResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getArticleResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	article, err := articles.New(app.DB, app.DBAdmin).GetByID(ctx, data.ID)
	if err != nil {
		logger.Error("Failed to fetch article", "article_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), getArticleResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getArticleResponse{
		Message: "Article fetched successfully",
		Article: article,
	})
}
