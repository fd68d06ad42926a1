// Package client is the HTTP client for the terra ordering backend. It
// speaks the REST surface the web frontend consumes: table lookup and
// occupancy, order create/append/fetch, customer status changes, the public
// menu and the payment endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/utils"
)

const (
	defaultTimeout = 10 * time.Second

	// Bounded retry for lookups and order creation: transient network
	// failures and 5xx responses are retried, 4xx never.
	maxAttempts = 3
	retryDelay  = 500 * time.Millisecond
)

// Client calls the terra ordering backend
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at baseURL
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithHTTPClient creates a client using a caller-provided http.Client
// (primarily for testing)
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// envelope is the backend's uniform response shape
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs one request and decodes the response envelope into out.
// Non-2xx responses become *APIError; 423 is reported via ErrTableLocked
// after decoding the locked payload into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// Malformed responses degrade to a generic error; the flow must
		// never crash on a parse failure.
		return utils.Permanent(&APIError{StatusCode: resp.StatusCode, Code: "PARSE_ERROR", Message: "unexpected response from server"})
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil && env.Data != nil {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return utils.Permanent(&APIError{StatusCode: resp.StatusCode, Code: "PARSE_ERROR", Message: "unexpected response payload"})
			}
		}
		return nil

	case resp.StatusCode == http.StatusLocked:
		if out != nil && env.Data != nil {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return utils.Permanent(&APIError{StatusCode: resp.StatusCode, Code: "PARSE_ERROR", Message: "unexpected locked payload"})
			}
		}
		return utils.Permanent(ErrTableLocked)

	default:
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		if utils.RetryableStatus(resp.StatusCode) {
			return apiErr
		}
		return utils.Permanent(apiErr)
	}
}

// LookupOutcome is a table lookup result plus whether the table was locked
// (HTTP 423). On a locked table the payload still carries the table and a
// waitlist offer.
type LookupOutcome struct {
	models.LookupResult
	Locked bool
}

// LookupTable resolves a scanned QR slug, passing along any cached session
// and wait tokens so the backend can recognize the caller. Transient
// failures are retried up to three times with backoff.
func (c *Client) LookupTable(ctx context.Context, slug, sessionToken, waitToken string) (*LookupOutcome, error) {
	q := url.Values{}
	if sessionToken != "" {
		q.Set("sessionToken", sessionToken)
	}
	if waitToken != "" {
		q.Set("waitToken", waitToken)
	}
	path := "/api/tables/lookup/" + url.PathEscape(slug)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var outcome LookupOutcome
	err := utils.Retry(ctx, maxAttempts, retryDelay, func() error {
		outcome = LookupOutcome{}
		return c.do(ctx, http.MethodGet, path, nil, &outcome.LookupResult)
	})
	if errors.Is(err, ErrTableLocked) {
		outcome.Locked = true
		return &outcome, nil
	}
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// OccupyRequest claims a table for a session
type OccupyRequest struct {
	SessionToken string `json:"session_token"`
}

// OccupyTable claims the table for the given session token
func (c *Client) OccupyTable(ctx context.Context, tableID uint, sessionToken string) (*models.Table, error) {
	var table models.Table
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tables/%d/occupy", tableID), OccupyRequest{SessionToken: sessionToken}, &table)
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// GetOrder fetches the current order snapshot. A 404 is returned as
// ErrNotFound; other failures come back as-is and the caller decides
// whether to keep cached state.
func (c *Client) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &order)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ItemRequest is one cart line submitted with an order or KOT append.
// Prices are resolved server-side from the menu.
type ItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest creates a new order
type CreateOrderRequest struct {
	ServiceType     models.ServiceType `json:"service_type"`
	SessionToken    string             `json:"session_token,omitempty"`
	CartID          string             `json:"cart_id"`
	TableID         *uint              `json:"table_id,omitempty"`
	CustomerName    *string            `json:"customer_name,omitempty"`
	CustomerMobile  *string            `json:"customer_mobile,omitempty"`
	DeliveryAddress *string            `json:"delivery_address,omitempty"`
	Items           []ItemRequest      `json:"items"`
}

// CreateOrder places a new order. Creation is retried on transient
// failures like lookups are.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	err := utils.Retry(ctx, maxAttempts, retryDelay, func() error {
		order = models.Order{}
		return c.do(ctx, http.MethodPost, "/api/orders", req, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AppendKOTRequest appends items to an existing order as a new KOT batch
type AppendKOTRequest struct {
	SessionToken string        `json:"session_token,omitempty"`
	Items        []ItemRequest `json:"items"`
}

// AppendKOT adds a kitchen order ticket to an existing order
func (c *Client) AppendKOT(ctx context.Context, orderID uint, req AppendKOTRequest) (*models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/orders/%d/kot", orderID), req, &order)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// CustomerStatusRequest is a customer-initiated cancel or return
type CustomerStatusRequest struct {
	Status       models.OrderStatus `json:"status"` // Cancelled or Returned
	Reason       string             `json:"reason"`
	SessionToken string             `json:"session_token,omitempty"`
}

// UpdateCustomerStatus requests a customer-initiated Cancelled/Returned
// transition with a reason
func (c *Client) UpdateCustomerStatus(ctx context.Context, orderID uint, req CustomerStatusRequest) (*models.Order, error) {
	var order models.Order
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/orders/%d/customer-status", orderID), req, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ConfirmPayment marks a cash payment complete and returns the paid order
func (c *Client) ConfirmPayment(ctx context.Context, orderID uint, sessionToken string) (*models.Order, error) {
	var order models.Order
	body := map[string]string{"session_token": sessionToken}
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/orders/%d/confirm-payment", orderID), body, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchMenu fetches the public menu catalog, optionally scoped to a cartId
func (c *Client) FetchMenu(ctx context.Context, cartID string) (*models.Menu, error) {
	path := "/api/menu/public"
	if cartID != "" {
		path += "?cartId=" + url.QueryEscape(cartID)
	}

	var menu models.Menu
	if err := c.do(ctx, http.MethodGet, path, nil, &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

// CreatePaymentRequest starts a payment for an order
type CreatePaymentRequest struct {
	OrderID uint   `json:"order_id"`
	Method  string `json:"method"`
}

// CreatePayment initiates a payment attempt
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error) {
	var payment models.Payment
	if err := c.do(ctx, http.MethodPost, "/api/payments/create", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// LatestPayment fetches the most recent payment attempt for an order
func (c *Client) LatestPayment(ctx context.Context, orderID uint) (*models.Payment, error) {
	var payment models.Payment
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/payments/order/%d/latest", orderID), nil, &payment)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// CancelPayment cancels a pending payment attempt
func (c *Client) CancelPayment(ctx context.Context, paymentID uint) (*models.Payment, error) {
	var payment models.Payment
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/payments/%d/cancel", paymentID), nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
