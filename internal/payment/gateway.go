package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/gofiber/fiber/v2"
)

// GatewayOrder is the gateway-side payment object minted for a local order.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// GatewayClient talks to the payment gateway's orders API. It keeps no state
// and does not retry; retries belong to the deployment.
type GatewayClient struct {
	keyID     string
	keySecret string
	baseURL   string
	timeout   time.Duration
}

// NewGatewayClient creates a GatewayClient from explicit credentials.
func NewGatewayClient(cfg config.GatewayConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   timeout,
	}
}

// CreateOrder asks the gateway to create an order for amount minor units.
// Every failure is reported as ErrUpstream.
func (g *GatewayClient) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(g.baseURL + "/v1/orders")
	agent.BasicAuth(g.keyID, g.keySecret)
	agent.JSON(createOrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: request failed: %v", ErrUpstream, errs[0])
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: gateway responded %d: %s", ErrUpstream, code, truncate(body, 256))
	}

	var order GatewayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("%w: undecodable gateway response: %v", ErrUpstream, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: gateway response has no order id", ErrUpstream)
	}
	if order.Currency == "" {
		order.Currency = currency
	}
	return &order, nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
