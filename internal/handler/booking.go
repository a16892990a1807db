package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	Bookings bookingService
	Log      *slog.Logger
}

func NewBookingHandler(b bookingService, log *slog.Logger) *BookingHandler {
	return &BookingHandler{Bookings: b, Log: log}
}

type createBookingReq struct {
	TimeSlotID uint64 `json:"time_slot_id"`
	Seats      *int   `json:"seats"` // one seat when omitted
}

// Create books seats on a time slot for the calling student.
func (h *BookingHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.TimeSlotID == 0 {
		return badRequest(c, "time_slot_id is required")
	}
	seats := 1
	if req.Seats != nil {
		seats = *req.Seats
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.CreateBooking(ctx, p, req.TimeSlotID, seats)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// My lists the bookings visible to the caller.
func (h *BookingHandler) My(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	list, err := h.Bookings.ListMyBookings(ctx, p)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// Cancel cancels booking :id and releases its seats.
func (h *BookingHandler) Cancel(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	b, err := h.Bookings.CancelBooking(ctx, p, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
