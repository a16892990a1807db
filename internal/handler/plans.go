package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/uninest/internal/subscription"
)

type PlansHandler struct {
	Plans *subscription.Catalog
}

func NewPlansHandler(plans *subscription.Catalog) *PlansHandler { return &PlansHandler{Plans: plans} }

// List returns the purchasable plans.  ?include_trial=true adds the trial.
func (h *PlansHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"plans": h.Plans.List(c.QueryParam("include_trial") == "true")})
}
