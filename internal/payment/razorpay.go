// Package payment talks to the Razorpay orders API and verifies the
// signatures Razorpay attaches to checkout callbacks and webhooks.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EventPaymentCaptured is the webhook event that confirms a payment.
const EventPaymentCaptured = "payment.captured"

// ErrNotConfigured is returned when the gateway keys are missing.
var ErrNotConfigured = errors.New("payment gateway not configured")

// OrderRequest is the body of POST /v1/orders.  Amount is in paise.
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is the part of the gateway's order response we keep.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates orders on the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
}

// Client is a minimal Razorpay REST client authenticated with basic auth.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

func NewClient(baseURL, keyID, keySecret string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// KeyID is the public key handed to the checkout widget.
func (c *Client) KeyID() string { return c.keyID }

// CreateOrder registers an order so the client can complete checkout.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if c.keyID == "" || c.keySecret == "" {
		return Order{}, ErrNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Order{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Order{}, fmt.Errorf("razorpay create order: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Order{}, fmt.Errorf("razorpay read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		return Order{}, fmt.Errorf("razorpay create order: status %d: %s", resp.StatusCode, e.Error.Description)
	}
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return Order{}, fmt.Errorf("razorpay decode order: %w", err)
	}
	if o.ID == "" {
		return Order{}, errors.New("razorpay create order: empty order id")
	}
	return o, nil
}

// VerifyPaymentSignature checks the checkout callback signature, an
// HMAC-SHA256 of "order_id|payment_id" keyed with the API secret.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return validMAC([]byte(orderID+"|"+paymentID), signature, secret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against
// the raw request body keyed with the webhook secret.
func VerifyWebhookSignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return validMAC(body, signature, secret)
}

// Sign computes the hex HMAC-SHA256 of msg.  Exported for tests and tools
// that need to produce valid callbacks.
func Sign(msg []byte, secret string) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(msg)
	return hex.EncodeToString(m.Sum(nil))
}

func validMAC(msg []byte, signature, secret string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(msg)
	return hmac.Equal(got, m.Sum(nil))
}

// WebhookEvent is the slice of a Razorpay webhook the service reads.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseWebhook decodes a webhook body.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook: %w", err)
	}
	return ev, nil
}
