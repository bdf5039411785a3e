package repository

import (
	"context"

	"homebroker/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts n and fills in the assigned ID and CreatedAt.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(n).Error, "insert notification")
}

// ListByUserID returns every notification owned by userID, newest first.
// Rows sharing a timestamp come back in insertion order.
func (r *NotificationRepository) ListByUserID(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	list := []models.Notification{}
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Order("created_at DESC").Order("id ASC").Find(&list).Error
	return list, errors.Wrap(err, "list notifications")
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, errors.Wrap(err, "get notification")
	}
	return &n, nil
}

// MarkRead flags one of userID's notifications as read. It reports
// gorm.ErrRecordNotFound (wrapped) when no such notification belongs to
// userID; marking an already read notification succeeds.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint, userID string) error {
	var n models.Notification
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if err != nil {
		return errors.Wrap(err, "find notification")
	}
	if n.IsRead {
		return nil
	}
	err = r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true).Error
	return errors.Wrap(err, "mark notification read")
}

// MarkAllRead flags every unread notification of userID and returns how
// many rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, errors.Wrap(res.Error, "mark all notifications read")
}
