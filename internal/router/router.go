package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/uninest/internal/handler"
	"github.com/iliyamo/uninest/internal/metrics"
	"github.com/iliyamo/uninest/internal/middleware"
	"github.com/iliyamo/uninest/internal/model"
)

var anyRole = []model.Role{model.RoleStudent, model.RoleLibrary, model.RoleAdmin}

// RegisterRoutes registers the operational endpoints: health and the
// Prometheus scrape.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, m *metrics.Metrics) {
	e.GET("/healthz", health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout accepts either a refresh token or a bearer token, so it is not
	// behind JWTAuth
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(anyRole...))
}

// RegisterPublic registers unauthenticated catalog reads.  cache wraps the
// plan and directory listings only; slot listings change with every
// booking and are always served live.
func RegisterPublic(e *echo.Echo, plans *handler.PlansHandler, libs *handler.LibraryHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/plans", plans.List, cache)
	e.GET("/v1/libraries", libs.List, cache)
	e.GET("/v1/libraries/:id/timeslots", libs.ListSlots)
}
