package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/uninest/internal/handler"
	"github.com/iliyamo/uninest/internal/middleware"
	"github.com/iliyamo/uninest/internal/model"
)

// RegisterBookings registers the booking endpoints.  Students book; the
// listing is open to every role and scoped by the service.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings", middleware.JWTAuth(jwtSecret))
	g.POST("", b.Create, middleware.RequireRole(model.RoleStudent))
	g.GET("/my", b.My, middleware.RequireRole(anyRole...))
	g.DELETE("/:id", b.Cancel, middleware.RequireRole(model.RoleStudent, model.RoleLibrary))
}
