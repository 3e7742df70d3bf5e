package routes

import (
	"net/http"
	"time"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"

	"github.com/hunter-local/newsgraph/internal/server/middleware"
	"github.com/hunter-local/newsgraph/pkg/logger"
	"github.com/hunter-local/newsgraph/pkg/store"
	"github.com/hunter-local/newsgraph/pkg/store/ledger"
	"github.com/hunter-local/newsgraph/pkg/store/partners"
)

// CreatePartnerHandler creates a business partner
func CreatePartnerHandler(c echo.Context) error {
	type createPartnerBody struct {
		EntityID                *int64     `json:"entity_id"`
		BusinessName            string     `json:"business_name" validate:"required"`
		BusinessType            string     `json:"business_type"`
		ContactName             string     `json:"contact_name"`
		ContactEmail            string     `json:"contact_email" validate:"omitempty,email"`
		ContactPhone            string     `json:"contact_phone"`
		PartnershipTier         string     `json:"partnership_tier" validate:"omitempty,oneof=bronze silver gold platinum"`
		MonthlyFee              float64    `json:"monthly_fee" validate:"omitempty,gte=0"`
		MentionCreditsTotal     int64      `json:"mention_credits_total" validate:"omitempty,gte=0"`
		MonthlyMentionAllowance int64      `json:"monthly_mention_allowance" validate:"omitempty,gte=0"`
		ContractStartDate       *time.Time `json:"contract_start_date"`
		ContractEndDate         *time.Time `json:"contract_end_date"`
		AutoRenewal             *bool      `json:"auto_renewal"`
		Status                  string     `json:"status" validate:"omitempty,oneof=active inactive"`
		Notes                   string     `json:"notes"`
	}

	type createPartnerResponse struct {
		Message string            `json:"message"`
		Partner *partners.Partner `json:"partner,omitempty"`
	}

	data := new(createPartnerBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createPartnerResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createPartnerResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	partner, err := partners.New(app.DB).Create(ctx, partners.CreateParams{
		EntityID:                data.EntityID,
		BusinessName:            data.BusinessName,
		BusinessType:            data.BusinessType,
		ContactName:             data.ContactName,
		ContactEmail:            data.ContactEmail,
		ContactPhone:            data.ContactPhone,
		PartnershipTier:         data.PartnershipTier,
		MonthlyFee:              data.MonthlyFee,
		MentionCreditsTotal:     data.MentionCreditsTotal,
		MonthlyMentionAllowance: data.MonthlyMentionAllowance,
		ContractStartDate:       data.ContractStartDate,
		ContractEndDate:         data.ContractEndDate,
		AutoRenewal:             data.AutoRenewal,
		Status:                  data.Status,
		Notes:                   data.Notes,
	})
	if err != nil {
		logger.Error("Failed to create partner", "err", err)
		return c.JSON(errorStatus(err), createPartnerResponse{Message: errorMessage(err)})
	}

	logger.Info("Partner created", "partner_id", partner.ID, "tier", partner.PartnershipTier)
	return c.JSON(http.StatusCreated, createPartnerResponse{
		Message: "Partner created successfully",
		Partner: partner,
	})
}

// DebitCreditsHandler debits mention credits from a partner's balance
func DebitCreditsHandler(c echo.Context) error {
	type debitBody struct {
		ID          int64  `param:"id" validate:"required,numeric"`
		Amount      int64  `json:"amount" validate:"required,gt=0"`
		Description string `json:"description" validate:"required"`
	}

	type debitResponse struct {
		Message string          `json:"message"`
		Balance *ledger.Balance `json:"balance,omitempty"`
	}

	data := new(debitBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, debitResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, debitResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	balance, err := ledger.New(app.DBAdmin).Debit(ctx, data.ID, data.Amount, data.Description)
	if err != nil {
		var partial *store.PartialDebitError
		if eris.As(err, &partial) {
			// The balance moved but the audit entry is missing. Report it so
			// the caller can reconcile instead of retrying the debit.
			logger.Error("Debit applied but usage log append failed",
				"partner_id", data.ID, "amount", data.Amount, "err", partial.Err)
			return c.JSON(http.StatusInternalServerError, debitResponse{
				Message: "Debit applied but audit log entry failed, do not retry",
				Balance: balance,
			})
		}
		logger.Error("Failed to debit credits", "partner_id", data.ID, "amount", data.Amount, "err", err)
		return c.JSON(errorStatus(err), debitResponse{Message: errorMessage(err)})
	}

	logger.Info("Credits debited", "partner_id", data.ID, "amount", data.Amount)
	return c.JSON(http.StatusOK, debitResponse{
		Message: "Credits debited successfully",
		Balance: balance,
	})
}

// TopUpCreditsHandler adds purchased credits to a partner's balance
func TopUpCreditsHandler(c echo.Context) error {
	type topUpBody struct {
		ID     int64 `param:"id" validate:"required,numeric"`
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}

	type topUpResponse struct {
		Message string          `json:"message"`
		Balance *ledger.Balance `json:"balance,omitempty"`
	}

	data := new(topUpBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, topUpResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, topUpResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	balance, err := ledger.New(app.DBAdmin).TopUp(ctx, data.ID, data.Amount)
	if err != nil {
		logger.Error("Failed to top up credits", "partner_id", data.ID, "amount", data.Amount, "err", err)
		return c.JSON(errorStatus(err), topUpResponse{Message: errorMessage(err)})
	}

	logger.Info("Credits topped up", "partner_id", data.ID, "amount", data.Amount)
	return c.JSON(http.StatusOK, topUpResponse{
		Message: "Credits topped up successfully",
		Balance: balance,
	})
}
