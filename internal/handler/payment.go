package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SignatureHeader carries the webhook HMAC.
const SignatureHeader = "X-Razorpay-Signature"

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	Payments paymentService
	Log      *slog.Logger
}

func NewPaymentHandler(p paymentService, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{Payments: p, Log: log}
}

type createOrderReq struct {
	PlanID string `json:"plan_id"`
}

type verifyReq struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// CreateOrder opens a gateway order for a plan.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil || req.PlanID == "" {
		return badRequest(c, "plan_id is required")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	order, err := h.Payments.CreateOrder(ctx, p, req.PlanID)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// Verify applies a checkout callback.  Replays return the period created
// the first time with applied=false.
func (h *PaymentHandler) Verify(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Payments.VerifyPayment(ctx, p, req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Webhook authenticates the raw body against the signature header.  The
// body must not be bound before verification.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return badRequest(c, "unreadable body")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	res, err := h.Payments.HandleWebhook(ctx, body, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		return fail(c, h.Log, err)
	}
	if res == nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "ignored"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "applied": res.Applied})
}
