// Package auspost provides the HTTP transport for the Australia Post
// Shipping & Tracking API.
package auspost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/parcelpost/internal/core/carrier"
)

const (
	// ProductionURL is the live shipping API.
	ProductionURL = "https://digitalapi.auspost.com.au/shipping/v1"
	// TestbedURL is the carrier's sandbox environment.
	TestbedURL = "https://digitalapi.auspost.com.au/test/shipping/v1"
)

// Client performs calls against the carrier API.
type Client struct {
	baseURL       string
	apiKey        string
	password      string
	accountNumber string
	httpClient    *http.Client
	logger        *slog.Logger
}

// Config holds carrier client configuration.
type Config struct {
	BaseURL       string // defaults to ProductionURL
	APIKey        string // basic auth username
	Password      string // basic auth password
	AccountNumber string // sent as the Account-Number header
	Timeout       time.Duration
}

// NewClient creates a new carrier client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = ProductionURL
	}
	return &Client{
		baseURL:       baseURL,
		apiKey:        cfg.APIKey,
		password:      cfg.Password,
		accountNumber: cfg.AccountNumber,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// =============================================================================
// Operations
// =============================================================================

// GetQuotes prices the requested items.
func (c *Client) GetQuotes(ctx context.Context, req carrier.QuoteRequest) ([]carrier.Quote, error) {
	var resp carrier.QuoteResponse
	if err := c.do(ctx, "get quotes", http.MethodPost, "/prices/items", req, &resp); err != nil {
		return nil, err
	}
	return resp.Quotes(), nil
}

// CreateShipments lodges the shipments in req.
func (c *Client) CreateShipments(ctx context.Context, req carrier.ShipmentsRequest) (*carrier.ShipmentsResponse, error) {
	var resp carrier.ShipmentsResponse
	if err := c.do(ctx, "create shipments", http.MethodPost, "/shipments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLabels requests labels and returns the URL of the rendered document.
func (c *Client) GetLabels(ctx context.Context, req carrier.LabelRequest) (string, error) {
	var resp carrier.LabelResponse
	if err := c.do(ctx, "get labels", http.MethodPost, "/labels", req, &resp); err != nil {
		return "", err
	}

	if len(resp.Labels) == 0 {
		return "", ErrLabelNotReady
	}
	label := resp.Labels[0]
	if len(label.Errors) > 0 {
		return "", &APIError{Op: "get labels", StatusCode: http.StatusOK, Errors: label.Errors}
	}
	if label.Status != carrier.LabelStatusAvailable || label.URL == "" {
		return "", fmt.Errorf("%w: request %s is %s", ErrLabelNotReady, label.RequestID, label.Status)
	}
	return label.URL, nil
}

// DeleteShipment deletes an unmanifested shipment.
func (c *Client) DeleteShipment(ctx context.Context, shipmentID string) (bool, error) {
	if shipmentID == "" {
		return false, ErrEmptyShipmentID
	}
	if err := c.do(ctx, "delete shipment", http.MethodDelete, "/shipments/"+url.PathEscape(shipmentID), nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// =============================================================================
// Helper Methods
// =============================================================================

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("carrier call",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.SetBasicAuth(c.apiKey, c.password)
	}
	if c.accountNumber != "" {
		req.Header.Set("Account-Number", c.accountNumber)
	}
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}

	var envelope carrier.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Errors) > 0 {
		apiErr.Errors = envelope.Errors
	} else {
		apiErr.Body = strings.TrimSpace(string(raw))
	}
	return apiErr
}
