package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/uninest/internal/service"
)

// statusOf maps a service error kind onto an HTTP status.
func statusOf(err error) int {
	switch service.KindOf(err) {
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindSubscriptionRequired:
		return http.StatusPaymentRequired
	case service.KindCapacityExceeded, service.KindConflict:
		return http.StatusConflict
	case service.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err as {"error": ...}.  Errors without a kind are logged and
// reported as a generic 500 so internals never reach the client.
func fail(c echo.Context, log *slog.Logger, err error) error {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	var se *service.Error
	if errors.As(err, &se) && se.Msg != "" {
		return c.JSON(status, echo.Map{"error": se.Msg})
	}
	return c.JSON(status, echo.Map{"error": string(service.KindOf(err))})
}
