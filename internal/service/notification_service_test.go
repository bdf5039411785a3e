package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"homebroker/internal/database"
	"homebroker/internal/hub"
	"homebroker/internal/models"
	"homebroker/internal/repository"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotificationService(t *testing.T) (*NotificationService, *hub.Registry) {
	t.Helper()
	registry := hub.NewRegistry()
	repo := repository.NewNotificationRepository(database.NewTestDB(t))
	return NewNotificationService(repo, registry), registry
}

// failingStore refuses every write.
type failingStore struct {
	NotificationStore
}

func (failingStore) Create(context.Context, *models.Notification) error {
	return errors.New("database is gone")
}

func TestPublishDeliversToOpenStream(t *testing.T) {
	ctx := context.Background()
	svc, registry := newTestNotificationService(t)

	var pushed []*models.Notification
	registry.Register("u1", func(n *models.Notification) error {
		pushed = append(pushed, n)
		return nil
	})

	n, err := svc.Publish(ctx, PublishInput{
		UserID: "u1",
		Type:   "alert",
		Data:   json.RawMessage(`{"message":"Booked"}`),
	})
	require.NoError(t, err)

	assert.NotZero(t, n.ID)
	assert.False(t, n.IsRead)
	assert.False(t, n.CreatedAt.IsZero())
	require.Len(t, pushed, 1)
	assert.Equal(t, n.ID, pushed[0].ID)
	assert.Equal(t, n.CreatedAt, pushed[0].CreatedAt)
	assert.Equal(t, "Booked", pushed[0].Message())
}

func TestPublishWithoutListenerIsStored(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNotificationService(t)

	n, err := svc.Publish(ctx, PublishInput{UserID: "u1", Type: "alert", Data: json.RawMessage(`{"message":"hi"}`)})
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
	assert.False(t, list[0].IsRead)
}

func TestPublishDeliveryFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	svc, registry := newTestNotificationService(t)
	registry.Register("u1", func(*models.Notification) error { return hub.ErrStreamClosed })

	n, err := svc.Publish(ctx, PublishInput{UserID: "u1", Type: "alert", Data: json.RawMessage(`{"message":"hi"}`)})
	require.NoError(t, err)

	list, err := svc.List(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestPublishDefaultsType(t *testing.T) {
	svc, _ := newTestNotificationService(t)

	n, err := svc.Publish(context.Background(), PublishInput{UserID: " u1 ", Data: json.RawMessage(`{"message":"hi"}`)})
	require.NoError(t, err)
	assert.Equal(t, "system", n.Type)
	assert.Equal(t, "u1", n.UserID)
}

func TestPublishValidation(t *testing.T) {
	cases := map[string]PublishInput{
		"missing user":       {Type: "alert", Data: json.RawMessage(`{"message":"hi"}`)},
		"missing data":       {UserID: "u1", Type: "alert"},
		"array data":         {UserID: "u1", Data: json.RawMessage(`["hi"]`)},
		"broken data":        {UserID: "u1", Data: json.RawMessage(`{"message":`)},
		"missing message":    {UserID: "u1", Data: json.RawMessage(`{"title":"x"}`)},
		"non-string message": {UserID: "u1", Data: json.RawMessage(`{"message":42}`)},
		"blank message":      {UserID: "u1", Data: json.RawMessage(`{"message":"  "}`)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			svc, registry := newTestNotificationService(t)
			called := false
			registry.Register("u1", func(*models.Notification) error { called = true; return nil })

			_, err := svc.Publish(context.Background(), in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
			assert.False(t, called)

			list, err := svc.List(context.Background(), "u1", false)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestPublishLengthLimitsCountCharacters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNotificationService(t)
	data := json.RawMessage(`{"message":"hi"}`)

	// 64 runes, 128 bytes.
	n, err := svc.Publish(ctx, PublishInput{UserID: strings.Repeat("é", 64), Type: strings.Repeat("ü", 50), Data: data})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 64), n.UserID)

	_, err = svc.Publish(ctx, PublishInput{UserID: strings.Repeat("é", 65), Data: data})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Publish(ctx, PublishInput{UserID: "u1", Type: strings.Repeat("ü", 51), Data: data})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPublishStoreFailureSkipsDelivery(t *testing.T) {
	registry := hub.NewRegistry()
	svc := NewNotificationService(failingStore{}, registry)
	called := false
	registry.Register("u1", func(*models.Notification) error { called = true; return nil })

	_, err := svc.Publish(context.Background(), PublishInput{UserID: "u1", Data: json.RawMessage(`{"message":"hi"}`)})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrValidation))
	assert.False(t, called)
}

func TestMarkReadNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestNotificationService(t)
	n, err := svc.Publish(ctx, PublishInput{UserID: "u1", Data: json.RawMessage(`{"message":"hi"}`)})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkRead(ctx, n.ID, "u2"), ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, 9999, "u1"), ErrNotFound)
	require.NoError(t, svc.MarkRead(ctx, n.ID, "u1"))

	updated, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, updated)
}
