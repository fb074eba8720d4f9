package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkulima-labs/daftari-core/internal/core/domain"
	"github.com/mkulima-labs/daftari-core/internal/core/ports/driven"
)

// Ensure Client implements both ledger-facing ports
var (
	_ driven.LedgerClient    = (*Client)(nil)
	_ driven.ReferenceSource = (*Client)(nil)
)

// deviceTokenTTL is the lifetime of a minted device token. Tokens are
// re-minted shortly before expiry.
const deviceTokenTTL = 15 * time.Minute

// Client talks to the cooperative's ledger service over HTTP. Create calls
// map response status codes onto the SubmitResult taxonomy; a Go error is
// returned only when no response was obtained at all.
type Client struct {
	httpClient *http.Client
	baseURL    string

	deviceID     string
	deviceSecret []byte

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Config holds ledger client configuration
type Config struct {
	// BaseURL is the ledger service root (http://host:port)
	BaseURL string

	// DeviceID identifies this device to the ledger
	DeviceID string

	// DeviceSecret signs the device token
	DeviceSecret string

	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration
}

// NewClient creates a new ledger client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		deviceID:     cfg.DeviceID,
		deviceSecret: []byte(cfg.DeviceSecret),
	}
}

// bearerToken returns a signed device token, minting a fresh one when the
// cached token is near expiry.
func (c *Client) bearerToken() (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.token, nil
	}

	now := time.Now()
	expiry := now.Add(deviceTokenTTL)
	claims := jwt.MapClaims{
		"device_id": c.deviceID,
		"iat":       now.Unix(),
		"exp":       expiry.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.deviceSecret)
	if err != nil {
		return "", fmt.Errorf("sign device token: %w", err)
	}
	c.token = token
	c.tokenExpiry = expiry
	return token, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// errorBody is the ledger's error response shape.
type errorBody struct {
	Message            string `json:"message"`
	ExistingWorkflowID string `json:"existing_workflow_id,omitempty"`
}

// createResponse is the ledger's accept response shape.
type createResponse struct {
	EntryID string `json:"entry_id"`
}

// classify maps a response onto the SubmitResult taxonomy. The body is read
// fully here so the connection can be reused.
func classify(resp *http.Response) (*domain.SubmitResult, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var body createResponse
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("decode accept response: %w", err)
		}
		return &domain.SubmitResult{Status: domain.SubmitAccepted, EntryID: body.EntryID}, nil

	case resp.StatusCode == http.StatusConflict:
		var body errorBody
		_ = json.Unmarshal(data, &body)
		return &domain.SubmitResult{
			Status:             domain.SubmitDuplicate,
			ExistingWorkflowID: body.ExistingWorkflowID,
			Message:            body.Message,
		}, nil

	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var body errorBody
		_ = json.Unmarshal(data, &body)
		return &domain.SubmitResult{Status: domain.SubmitValidationFailed, Message: body.Message}, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		var body errorBody
		_ = json.Unmarshal(data, &body)
		return &domain.SubmitResult{Status: domain.SubmitUnauthorized, Message: body.Message}, nil

	default:
		// 5xx, 429 and anything unexpected: safe to retry next pass.
		return &domain.SubmitResult{
			Status:  domain.SubmitTransientError,
			Message: fmt.Sprintf("ledger returned %d", resp.StatusCode),
		}, nil
	}
}

// CreateDelivery submits one delivery record.
func (c *Client) CreateDelivery(ctx context.Context, rec *domain.DeliveryRecord) (*domain.SubmitResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/deliveries", rec)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit delivery: %w", err)
	}
	defer resp.Body.Close()
	return classify(resp)
}

// saleBatchRequest is the wire shape of a sale batch submission.
type saleBatchRequest struct {
	WorkflowID    string               `json:"workflow_id"`
	Lines         []*domain.SaleRecord `json:"lines"`
	AttachmentRef string               `json:"attachment_ref,omitempty"`
}

// CreateSaleBatch submits every line of one purchase event atomically.
func (c *Client) CreateSaleBatch(ctx context.Context, batch *domain.SaleBatch) (*domain.SubmitResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/sales/batch", saleBatchRequest{
		WorkflowID:    batch.WorkflowID,
		Lines:         batch.Lines,
		AttachmentRef: batch.AttachmentRef,
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit sale batch: %w", err)
	}
	defer resp.Body.Close()
	return classify(resp)
}

// LookupDelivery returns the ledger entry for (producer, session, date), or
// nil when none exists.
func (c *Client) LookupDelivery(ctx context.Context, producerID string, session domain.Session, date string) (*domain.LedgerEntry, error) {
	params := url.Values{}
	params.Set("producer_id", producerID)
	params.Set("session", string(session))
	params.Set("date", date)

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/deliveries/lookup?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup delivery: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var entry domain.LedgerEntry
		if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
			return nil, fmt.Errorf("decode ledger entry: %w", err)
		}
		return &entry, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("lookup delivery: ledger returned %d", resp.StatusCode)
	}
}

// VerifyDelivery checks that a previously submitted reference id was
// persisted.
func (c *Client) VerifyDelivery(ctx context.Context, referenceID string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/deliveries/"+url.PathEscape(referenceID), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify delivery: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("verify delivery: ledger returned %d", resp.StatusCode)
	}
}

func fetchList[T any](ctx context.Context, c *Client, path string) ([]*T, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: ledger returned %d", path, resp.StatusCode)
	}
	var out []*T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// FetchProducers pulls the producer directory.
func (c *Client) FetchProducers(ctx context.Context) ([]*domain.Producer, error) {
	return fetchList[domain.Producer](ctx, c, "/api/v1/reference/producers")
}

// FetchRoutes pulls the route list.
func (c *Client) FetchRoutes(ctx context.Context) ([]*domain.Route, error) {
	return fetchList[domain.Route](ctx, c, "/api/v1/reference/routes")
}

// FetchSessionWindows pulls the session windows.
func (c *Client) FetchSessionWindows(ctx context.Context) ([]*domain.SessionWindow, error) {
	return fetchList[domain.SessionWindow](ctx, c, "/api/v1/reference/sessions")
}

// FetchPricedItems pulls the item price list.
func (c *Client) FetchPricedItems(ctx context.Context) ([]*domain.PricedItem, error) {
	return fetchList[domain.PricedItem](ctx, c, "/api/v1/reference/items")
}
