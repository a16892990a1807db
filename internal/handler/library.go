package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/uninest/internal/service"
)

// LibraryHandler serves library profiles and their published slots.
type LibraryHandler struct {
	Libraries libraryService
	Slots     slotService
	Log       *slog.Logger
}

func NewLibraryHandler(libs libraryService, slots slotService, log *slog.Logger) *LibraryHandler {
	return &LibraryHandler{Libraries: libs, Slots: slots, Log: log}
}

// Create creates the caller's library profile and returns it with the
// trial period it was granted.
func (h *LibraryHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var in service.LibraryInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	prof, err := h.Libraries.CreateLibrary(ctx, p, in)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, prof)
}

// Mine returns the caller's library.
func (h *LibraryHandler) Mine(c echo.Context) error {
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
	return c.JSON(http.StatusOK, echo.Map{"library": lib})
}

// List returns libraries, optionally filtered by ?location=.
func (h *LibraryHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	libs, err := h.Libraries.ListLibraries(ctx, strings.TrimSpace(c.QueryParam("location")))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"libraries": libs})
}

// ListSlots returns the time slots of library :id.
func (h *LibraryHandler) ListSlots(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid library id")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	slots, err := h.Slots.ListSlots(ctx, id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"time_slots": slots})
}
