package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"homebroker/internal/domain"
	"homebroker/internal/hub"
	"homebroker/internal/models"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var log = logging.MustGetLogger("notif")

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("notification not found")
)

// validationError reads "validation failed: <reason>" and matches
// ErrValidation under errors.Is.
type validationError string

func (e validationError) Error() string        { return "validation failed: " + string(e) }
func (e validationError) Is(target error) bool { return target == ErrValidation }

// NotificationStore is the persistence the service needs.
// *repository.NotificationRepository satisfies it.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUserID(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uint, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// PublishInput is the complete set of caller-controlled fields. Anything
// else on a stored notification is assigned by the server.
type PublishInput struct {
	UserID string
	Type   string
	Data   json.RawMessage
}

type NotificationService struct {
	store    NotificationStore
	registry *hub.Registry
}

func NewNotificationService(store NotificationStore, registry *hub.Registry) *NotificationService {
	return &NotificationService{store: store, registry: registry}
}

func validate(in *PublishInput) error {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Type = strings.TrimSpace(in.Type)
	if in.UserID == "" {
		return validationError("user_id is required")
	}
	if utf8.RuneCountInString(in.UserID) > 64 {
		return validationError("user_id is longer than 64 characters")
	}
	if in.Type == "" {
		in.Type = domain.DefaultNotificationType
	}
	if utf8.RuneCountInString(in.Type) > 50 {
		return validationError("type is longer than 50 characters")
	}
	trimmed := bytes.TrimSpace(in.Data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return validationError("data must be a JSON object")
	}
	var payload map[string]any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return validationError("data must be a JSON object")
	}
	msg, ok := payload["message"].(string)
	if !ok || strings.TrimSpace(msg) == "" {
		return validationError("data.message is required")
	}
	in.Data = trimmed
	return nil
}

// Publish stores a notification for in.UserID and, if that user has an
// open stream, queues the stored record on it before returning.
//
// The record is durable before delivery is attempted. A missing listener
// or a failed push leaves the stored record in place and is not reported
// to the caller; the user sees it on the next bulk fetch.
func (s *NotificationService) Publish(ctx context.Context, in PublishInput) (*models.Notification, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	n := &models.Notification{
		UserID: in.UserID,
		Type:   in.Type,
		Data:   datatypes.JSON(in.Data),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	s.deliver(n)
	return n, nil
}

func (s *NotificationService) deliver(n *models.Notification) {
	deliver, ok := s.registry.Get(n.UserID)
	if !ok {
		log.Debugf("no open stream for user %s, notification %d stored only", n.UserID, n.ID)
		return
	}
	if err := deliver(n); err != nil {
		log.Debugf("push of notification %d to user %s failed: %v", n.ID, n.UserID, err)
	}
}

// List returns the user's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.store.ListByUserID(ctx, userID, unreadOnly)
}

// MarkRead returns ErrNotFound when id does not belong to userID.
func (s *NotificationService) MarkRead(ctx context.Context, id uint, userID string) error {
	err := s.store.MarkRead(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}
