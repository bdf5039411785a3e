// Package notifyclient talks to the homebroker notification endpoints.
//
// Client is the end-user side: bulk fetch, read state and the live
// stream, authenticated with a session access token. Publisher is the
// trusted server-side side, authenticated with the shared publish secret.
// Feed combines a Client's bulk fetch and stream into one local view.
package notifyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Notification mirrors the server's JSON record.
type Notification struct {
	ID        uint            `json:"id"`
	UserID    string          `json:"user_id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

// Message returns data.message, or "" when absent.
func (n Notification) Message() string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(n.Data, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("homebroker: status %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client calls the session-authenticated endpoints for one user.
type Client struct {
	baseURL string
	token   string
	// httpClient serves short JSON calls; streamClient has no timeout.
	httpClient   *http.Client
	streamClient *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		streamClient: &http.Client{},
	}
}

func doJSON(ctx context.Context, hc *http.Client, method, url, bearer string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// List performs the bulk fetch: every notification of the session user,
// newest first.
func (c *Client) List(ctx context.Context) ([]Notification, error) {
	var list []Notification
	if err := doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+"/api/v1/me/notifications", c.token, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) MarkRead(ctx context.Context, id uint) error {
	url := fmt.Sprintf("%s/api/v1/me/notifications/%d/read", c.baseURL, id)
	return doJSON(ctx, c.httpClient, http.MethodPut, url, c.token, nil, nil)
}

func (c *Client) MarkAllRead(ctx context.Context) (int64, error) {
	var resp struct {
		Updated int64 `json:"updated"`
	}
	if err := doJSON(ctx, c.httpClient, http.MethodPut, c.baseURL+"/api/v1/me/notifications/read-all", c.token, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// Stream opens the live channel and calls fn for every delivered
// notification, in arrival order, until ctx is cancelled (returns nil) or
// the connection ends (returns the cause). Keep-alive frames are skipped.
// Nothing published while the stream is down is replayed.
func (c *Client) Stream(ctx context.Context, fn func(Notification)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/me/notifications/stream", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	reader := NewStreamReader(resp.Body)
	for {
		frame, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if frame.IsKeepAlive() {
			continue
		}
		var n Notification
		if err := json.Unmarshal(frame.Data, &n); err != nil {
			continue
		}
		fn(n)
	}
}
