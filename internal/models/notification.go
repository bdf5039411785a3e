package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Notification is immutable after insert apart from IsRead.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    string         `gorm:"size:64;not null;index:idx_notifications_user_read,priority:1" json:"user_id"`
	Type      string         `gorm:"size:50;not null;index" json:"type"`
	Data      datatypes.JSON `json:"data"`
	IsRead    bool           `gorm:"not null;default:false;index:idx_notifications_user_read,priority:2" json:"is_read"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Message returns data.message, or "" when the payload has none.
func (n *Notification) Message() string {
	var payload struct {
		Message string `json:"message"`
	}
	if len(n.Data) == 0 {
		return ""
	}
	if err := json.Unmarshal(n.Data, &payload); err != nil {
		return ""
	}
	return payload.Message
}
