// Package gateway wraps the external payment processor's charge-creation,
// transaction-status and payout APIs. It translates transport concerns only;
// status vocabulary mapping belongs to the settlement and withdrawal services.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pendakian/trip-service/internal"
	gatewaytypes "github.com/pendakian/trip-service/internal/core/datamodel/gateway"
)

type Client struct {
	httpClient *http.Client
	serverKey  string
	chargeURL  string
	payoutURL  string
	timeout    time.Duration
	logger     *slog.Logger
}

func NewClient(cfg internal.GatewayConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = internal.DefaultGatewayTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		serverKey:  cfg.ServerKey,
		chargeURL:  cfg.ChargeURL,
		payoutURL:  cfg.PayoutURL,
		timeout:    timeout,
		logger:     logger,
	}
}

// CreateCheckout opens a hosted checkout session for an order and returns the
// URL the customer must be redirected to.
func (c *Client) CreateCheckout(ctx context.Context, req *gatewaytypes.ChargeRequest) (*gatewaytypes.ChargeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	var resp gatewaytypes.ChargeResponse
	if err := c.do(ctx, http.MethodPost, c.chargeURL+"/snap/v1/transactions", req, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("checkout session created",
		"order_id", req.OrderID,
		"gross_amount", req.GrossAmount)

	return &resp, nil
}

// TransactionStatus queries the processor for the current status of a charge
// by its order id.
func (c *Client) TransactionStatus(ctx context.Context, orderID string) (*gatewaytypes.TransactionStatus, error) {
	var resp gatewaytypes.TransactionStatus
	url := fmt.Sprintf("%s/v2/%s/status", c.chargeURL, orderID)
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePayout submits a disbursement to a guide's bank account.
func (c *Client) CreatePayout(ctx context.Context, req *gatewaytypes.PayoutRequest) (*gatewaytypes.PayoutResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	// The payout API wraps requests and responses in a payouts array.
	payload := map[string]interface{}{
		"payouts": []*gatewaytypes.PayoutRequest{req},
	}

	var resp struct {
		Payouts []gatewaytypes.PayoutResult `json:"payouts"`
	}
	if err := c.do(ctx, http.MethodPost, c.payoutURL+"/api/v1/payouts", payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Payouts) == 0 {
		return nil, fmt.Errorf("payout response missing payout entry for reference %s", req.ReferenceNo)
	}

	c.logger.Info("payout submitted",
		"reference_no", req.ReferenceNo,
		"amount", req.Amount,
		"payout_id", resp.Payouts[0].PayoutID,
		"status", resp.Payouts[0].Status)

	return &resp.Payouts[0], nil
}

// PayoutStatus queries the disbursement API for a payout's current status.
func (c *Client) PayoutStatus(ctx context.Context, payoutID string) (*gatewaytypes.PayoutResult, error) {
	var resp gatewaytypes.PayoutResult
	url := fmt.Sprintf("%s/api/v1/payouts/%s", c.payoutURL, payoutID)
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}
	if resp.PayoutID == "" {
		resp.PayoutID = payoutID
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	ctx, cancel := internal.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("gateway request failed", "method", method, "url", url, "error", err)
		return internal.NewGatewayError("payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return internal.NewGatewayError("failed to read gateway response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("gateway returned error",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
			"response", string(respBody))
		return internal.NewGatewayError(
			fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil).
			WithDetails(json.RawMessage(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return internal.NewGatewayError("failed to decode gateway response", err)
		}
	}

	return nil
}
