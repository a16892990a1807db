package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/uninest/internal/handler"
	"github.com/iliyamo/uninest/internal/middleware"
	"github.com/iliyamo/uninest/internal/model"
)

// LibraryHandlers groups the handlers behind library-owner routes.
type LibraryHandlers struct {
	Libraries     *handler.LibraryHandler
	TimeSlots     *handler.TimeSlotHandler
	Subscriptions *handler.SubscriptionHandler
	Payments      *handler.PaymentHandler
}

// RegisterLibrary registers the library-owner endpoints under /v1 and the
// gateway webhook, which authenticates by signature instead of JWT.
func RegisterLibrary(e *echo.Echo, h LibraryHandlers, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)
	owner := middleware.RequireRole(model.RoleLibrary)

	e.POST("/v1/libraries", h.Libraries.Create, auth, owner)
	e.GET("/v1/libraries/mine", h.Libraries.Mine, auth, owner)

	e.POST("/v1/timeslots", h.TimeSlots.Create, auth, owner)

	e.GET("/v1/my-subscription", h.Subscriptions.Current, auth, owner)
	e.GET("/v1/my-subscription/history", h.Subscriptions.History, auth, owner)

	e.POST("/v1/payments/orders", h.Payments.CreateOrder, auth, owner)
	e.POST("/v1/payments/verify", h.Payments.Verify, auth, owner)

	e.POST("/v1/webhooks/razorpay", h.Payments.Webhook)
}
