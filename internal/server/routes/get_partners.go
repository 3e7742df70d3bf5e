package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store/ledger"
	"github.com/hunter-local/newsgraph/pkg/store/partners"
)

// GetPartnersHandler lists business partners
func GetPartnersHandler(c echo.Context) error {
	type getPartnersQuery struct {
		Status string `query:"status" validate:"omitempty,oneof=active inactive"`
		Tier   string `query:"tier"`
		Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	type getPartnersResponse struct {
		Message  string             `json:"message"`
		Partners []partners.Partner `json:"partners,omitempty"`
	}

	data := new(getPartnersQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getPartnersResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getPartnersResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	list, err := partners.New(app.DB).List(ctx, partners.Filter{
		Status: data.Status,
		Tier:   data.Tier,
		Limit:  data.Limit,
	})
	if err != nil {
		logger.Error("Failed to list partners", "err", err)
		return c.JSON(errorStatus(err), getPartnersResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getPartnersResponse{
		Message:  "Partners fetched successfully",
		Partners: list,
	})
}

// GetPartnerCreditsHandler returns a partner's balance and usage history
func GetPartnerCreditsHandler(c echo.Context) error {
	type getCreditsParams struct {
		ID    int64 `param:"id" validate:"required,numeric"`
		Limit int   `query:"limit" validate:"omitempty,min=1,max=200"`
	}

	type getCreditsResponse struct {
		Message string              `json:"message"`
		Credits *ledger.Credits     `json:"credits,omitempty"`
		Usage   []ledger.UsageEntry `json:"usage,omitempty"`
	}

	data := new(getCreditsParams)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, getCreditsResponse{Message: "Invalid request"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, getCreditsResponse{Message: "Invalid request"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()
	ledgerStore := ledger.New(app.DBAdmin)

	credits, err := ledgerStore.GetCredits(ctx, data.ID)
	if err != nil {
		logger.Error("Failed to fetch credits", "partner_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), getCreditsResponse{Message: errorMessage(err)})
	}

	usage, err := ledgerStore.UsageHistory(ctx, data.ID, data.Limit)
	if err != nil {
		logger.Error("Failed to fetch usage history", "partner_id", data.ID, "err", err)
		return c.JSON(errorStatus(err), getCreditsResponse{Message: errorMessage(err)})
	}

	return c.JSON(http.StatusOK, getCreditsResponse{
		Message: "Credits fetched successfully",
		Credits: credits,
		Usage:   usage,
	})
}
