package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandler shows a library owner their access.
type SubscriptionHandler struct {
	Libraries libraryService
	Ledger    subscriptionLedger
	Log       *slog.Logger
}

func NewSubscriptionHandler(libs libraryService, ledger subscriptionLedger, log *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{Libraries: libs, Ledger: ledger, Log: log}
}

// Current returns the period that grants access now, or active=false.
func (h *SubscriptionHandler) Current(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	lib, err := h.Libraries.GetMyLibrary(ctx, p)
	if err != nil {
		return fail(c, h.Log, err)
	}
	cur, err := h.Ledger.GetCurrent(ctx, lib.ID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if cur == nil {
		return c.JSON(http.StatusOK, echo.Map{"active": false, "subscription": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"active": true, "subscription": cur})
}

// History lists every period of the caller's library, newest first.
func (h *SubscriptionHandler) History(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	lib, err := h.Libraries.GetMyLibrary(ctx, p)
	if err != nil {
		return fail(c, h.Log, err)
	}
	hist, err := h.Ledger.History(ctx, lib.ID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"subscriptions": hist})
}
