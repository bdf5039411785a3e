package notifyclient

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Publisher creates notifications on behalf of trusted server-side code
// (booking confirmations, listing approvals, ...). The secret must never
// reach a browser.
type Publisher struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

func NewPublisher(baseURL, secret string) *Publisher {
	return &Publisher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type publishBody struct {
	UserID string `json:"user_id"`
	Type   string `json:"type,omitempty"`
	Data   any    `json:"data"`
}

// Publish stores a notification for userID and returns the stored record.
// data must encode to a JSON object with a non-empty "message".
func (p *Publisher) Publish(ctx context.Context, userID, notifType string, data any) (*Notification, error) {
	var n Notification
	body := publishBody{UserID: userID, Type: notifType, Data: data}
	if err := doJSON(ctx, p.httpClient, http.MethodPost, p.baseURL+"/api/v1/internal/notifications", p.secret, body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
