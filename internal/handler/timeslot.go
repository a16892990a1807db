package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/uninest/internal/service"
)

type TimeSlotHandler struct {
	Slots slotService
	Log   *slog.Logger
}

func NewTimeSlotHandler(slots slotService, log *slog.Logger) *TimeSlotHandler {
	return &TimeSlotHandler{Slots: slots, Log: log}
}

// Create publishes a time slot.  A library without an active subscription
// gets 402.
func (h *TimeSlotHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var in service.SlotInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	slot, err := h.Slots.CreateSlot(ctx, p, in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, slot)
}
