package notifyclient

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const publishURL = "https://notify.example.com/api/v1/internal/notifications"

func TestPublisherSendsSecretAndBody(t *testing.T) {
	p := NewPublisher("https://notify.example.com/", "s3cret")
	httpmock.ActivateNonDefault(p.httpClient)
	defer httpmock.DeactivateAndReset()

	var gotAuth string
	var gotBody map[string]any
	httpmock.RegisterResponder(http.MethodPost, publishURL,
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			if err := json.NewDecoder(req.Body).Decode(&gotBody); err != nil {
				return nil, err
			}
			return httpmock.NewJsonResponse(http.StatusCreated, map[string]any{
				"id":         42,
				"user_id":    "u-1",
				"type":       "appointment",
				"data":       map[string]any{"message": "Viewing confirmed"},
				"is_read":    false,
				"created_at": time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			})
		},
	)

	n, err := p.Publish(context.Background(), "u-1", "appointment", map[string]any{"message": "Viewing confirmed"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, "u-1", gotBody["user_id"])
	assert.Equal(t, "appointment", gotBody["type"])
	assert.Equal(t, map[string]any{"message": "Viewing confirmed"}, gotBody["data"])

	assert.Equal(t, uint(42), n.ID)
	assert.Equal(t, "Viewing confirmed", n.Message())
	assert.False(t, n.IsRead)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestPublisherOmitsEmptyType(t *testing.T) {
	p := NewPublisher("https://notify.example.com", "s3cret")
	httpmock.ActivateNonDefault(p.httpClient)
	defer httpmock.DeactivateAndReset()

	var gotBody map[string]any
	httpmock.RegisterResponder(http.MethodPost, publishURL,
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&gotBody); err != nil {
				return nil, err
			}
			return httpmock.NewJsonResponse(http.StatusCreated, map[string]any{"id": 1, "type": "system"})
		},
	)

	n, err := p.Publish(context.Background(), "u-1", "", map[string]any{"message": "hi"})
	require.NoError(t, err)
	_, hasType := gotBody["type"]
	assert.False(t, hasType)
	assert.Equal(t, "system", n.Type)
}

func TestPublisherErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantMsg string
		unauth  bool
	}{
		{"unauthorized", http.StatusUnauthorized, map[string]string{"error": "unauthorized"}, "unauthorized", true},
		{"validation", http.StatusBadRequest, map[string]string{"error": "validation failed: data.message is required"}, "validation failed: data.message is required", false},
		{"server", http.StatusInternalServerError, map[string]string{"error": "failed to create notification"}, "failed to create notification", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher("https://notify.example.com", "s3cret")
			httpmock.ActivateNonDefault(p.httpClient)
			defer httpmock.DeactivateAndReset()

			httpmock.RegisterResponder(http.MethodPost, publishURL,
				func(req *http.Request) (*http.Response, error) {
					return httpmock.NewJsonResponse(tt.status, tt.body)
				},
			)

			n, err := p.Publish(context.Background(), "u-1", "", map[string]any{})
			require.Error(t, err)
			assert.Nil(t, n)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.unauth, IsUnauthorized(err))
		})
	}
}

func TestPublisherNonJSONError(t *testing.T) {
	p := NewPublisher("https://notify.example.com", "s3cret")
	httpmock.ActivateNonDefault(p.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, publishURL,
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream down\n"))

	_, err := p.Publish(context.Background(), "u-1", "", map[string]any{"message": "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}
