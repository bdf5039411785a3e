package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"homebroker/config"
	"homebroker/internal/auth"
	"homebroker/internal/database"
	"homebroker/internal/domain"
	"homebroker/internal/hub"
	"homebroker/internal/router"
	"homebroker/pkg/notifyclient"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written by the feed callback while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test"},
		JWT: config.JWTConfig{
			AccessSecret: "cli-access-secret",
			AccessExpiry: time.Hour,
			Issuer:       "homebroker-test",
		},
		Notifications: config.NotificationsConfig{
			PublishSecret:     "cli-publish-secret",
			KeepAliveInterval: time.Hour,
		},
		RateLimit: config.RateLimitConfig{Requests: 10000, Window: time.Minute},
	}
}

func startServer(t *testing.T) (*RootOptions, *hub.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	registry := hub.NewRegistry()
	srv := httptest.NewServer(router.Setup(cfg, database.NewTestDB(t), registry))
	t.Cleanup(srv.Close)
	cfg.Notifications.BaseURL = srv.URL
	return &RootOptions{cfg: cfg}, registry
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"publish", "watch", "token"})
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("base-url"))
}

func TestTokenCommand(t *testing.T) {
	opts := &RootOptions{cfg: testConfig()}
	buf := &bytes.Buffer{}
	cmd := NewTokenCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--user", "u-42", "--email", "u42@example.com", "--role", "SELLER"})

	require.NoError(t, cmd.Execute())

	claims, err := auth.ParseAccessToken(&opts.cfg.JWT, strings.TrimSpace(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.UserID)
	assert.Equal(t, "u42@example.com", claims.Email)
	assert.Equal(t, domain.RoleSeller, claims.Role)
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	cmd := NewTokenCommand(&RootOptions{cfg: testConfig()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user", "u-42", "--role", "LANDLORD"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid role")
}

func TestPublishCommand(t *testing.T) {
	opts, _ := startServer(t)
	buf := &bytes.Buffer{}
	cmd := NewPublishCommand(opts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{
		"--user", "u-1",
		"--type", domain.NotificationAppointment,
		"--message", "Viewing confirmed",
		"--data", "listing_id=42",
	})

	require.NoError(t, cmd.Execute())

	var n notifyclient.Notification
	require.NoError(t, json.Unmarshal(buf.Bytes(), &n))
	assert.NotZero(t, n.ID)
	assert.Equal(t, "u-1", n.UserID)
	assert.Equal(t, domain.NotificationAppointment, n.Type)
	assert.JSONEq(t, `{"message":"Viewing confirmed","listing_id":"42"}`, string(n.Data))
}

func TestPublishCommandWrongSecret(t *testing.T) {
	opts, _ := startServer(t)
	cmd := NewPublishCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user", "u-1", "--message", "hi", "--secret", "nope"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, notifyclient.IsUnauthorized(err))
}

func TestPublishCommandRequiresMessage(t *testing.T) {
	cmd := NewPublishCommand(&RootOptions{cfg: testConfig()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user", "u-1"})

	assert.Error(t, cmd.Execute())
}

func TestWatchCommand(t *testing.T) {
	opts, registry := startServer(t)
	tok, err := auth.GenerateAccessToken(&opts.cfg.JWT, "u-w", "w@example.com", domain.RoleBuyer)
	require.NoError(t, err)

	out := &syncBuffer{}
	cmd := NewWatchCommand(opts)
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--token", tok})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		_, ok := registry.Get("u-w")
		return ok && strings.Contains(out.String(), "0 notifications")
	}, 5*time.Second, 10*time.Millisecond)

	pub := notifyclient.NewPublisher(opts.cfg.Notifications.BaseURL, opts.cfg.Notifications.PublishSecret)
	n, err := pub.Publish(ctx, "u-w", domain.NotificationListing, map[string]any{"message": "Price dropped"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "1 notifications, 1 unread")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "[listing] Price dropped")
	assert.NotZero(t, n.ID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
