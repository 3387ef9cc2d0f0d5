package dto

import "time"

// NotificationListQuery inbox filters
type NotificationListQuery struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse inbox entry
type NotificationResponse struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ComplaintID string     `json:"complaint_id,omitempty"`
	IsRead      bool       `json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
