package model

import (
	"time"

	"gorm.io/gorm"
)

// NotificationKind payload template identifier
type NotificationKind string

const (
	NotifyComplaintAssigned  NotificationKind = "complaint_assigned"
	NotifyComplaintEscalated NotificationKind = "complaint_escalated"
	NotifyComplaintResolved  NotificationKind = "complaint_resolved"
	NotifyComplaintRated     NotificationKind = "complaint_rated"
	NotifyStatusUpdated      NotificationKind = "status_updated"
)

// Notification in-app inbox message, table notifications
type Notification struct {
	NotificationID string           `gorm:"type:uuid;primaryKey"               json:"notification_id"`
	RecipientID    string           `gorm:"type:uuid;not null;index"           json:"recipient_id"`
	Kind           NotificationKind `gorm:"type:varchar(50);not null"          json:"kind"`
	Title          string           `gorm:"type:varchar(200);not null"         json:"title"`
	Content        string           `gorm:"type:text;not null"                 json:"content"`
	ComplaintID    *string          `gorm:"type:uuid"                          json:"complaint_id,omitempty"`
	IsRead         bool             `gorm:"not null;default:false"             json:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName table name
func (Notification) TableName() string { return "notifications" }

// BeforeCreate assigns the uuid
func (n *Notification) BeforeCreate(*gorm.DB) error {
	newID(&n.NotificationID)
	return nil
}
