package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/ukydev/monument-map/internal/models"
)

// DefaultTimeout bounds every backend round trip.
const DefaultTimeout = 10 * time.Second

// Client talks to the marker backend. The backend keeps the login in a
// session cookie, so the client owns a cookie jar for the lifetime of the page.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// GetMarkers fetches every marker the backend is willing to show.
func (c *Client) GetMarkers(ctx context.Context) ([]models.MarkerRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/get_markers", nil, &raw); err != nil {
		return nil, fmt.Errorf("get markers: %w", err)
	}

	var records []models.MarkerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		// A failing backend answers with the result envelope instead of an array.
		var res models.Result
		if json.Unmarshal(raw, &res) == nil && !res.Success {
			return nil, &RejectedError{Op: "get markers", Message: res.Message}
		}
		return nil, fmt.Errorf("get markers: %w: %v", ErrUnavailable, err)
	}
	return records, nil
}

// AddMarker persists a draft and returns the id the backend assigned.
func (c *Client) AddMarker(ctx context.Context, payload models.MarkerPayload) (int64, error) {
	payload.ID = 0
	res, err := c.mutate(ctx, "add marker", "/add_marker", payload)
	if err != nil {
		return 0, err
	}
	return res.ID, nil
}

// EditMarker replaces title, description and position of marker id.
func (c *Client) EditMarker(ctx context.Context, id int64, payload models.MarkerPayload) error {
	payload.ID = id
	_, err := c.mutate(ctx, "edit marker", fmt.Sprintf("/edit_marker/%d", id), payload)
	return err
}

// DeleteMarker removes marker id.
func (c *Client) DeleteMarker(ctx context.Context, id int64) error {
	_, err := c.mutate(ctx, "delete marker", fmt.Sprintf("/delete_marker/%d", id), nil)
	return err
}

// Login checks the credentials and returns the user id on success.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (int64, error) {
	res, err := c.mutate(ctx, "login", "/login", creds)
	if err != nil {
		return 0, err
	}
	return res.UserID, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, creds models.Credentials) error {
	_, err := c.mutate(ctx, "register", "/register", creds)
	return err
}

// Logout drops the backend session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.mutate(ctx, "logout", "/logout", nil)
	return err
}

func (c *Client) mutate(ctx context.Context, op, path string, body any) (models.Result, error) {
	var res models.Result
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	if !res.Success {
		return res, &RejectedError{Op: op, Message: res.Message}
	}
	return res, nil
}

// do sends one request and decodes the JSON answer into out. The backend
// reports application failures inside the body, so non-2xx statuses that still
// carry a JSON envelope are decoded instead of being treated as transport errors.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: status %d: invalid JSON: %v", ErrUnavailable, resp.StatusCode, err)
	}
	return nil
}
