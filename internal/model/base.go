package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel audit fields embedded by every business model
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// VersionedModel adds the optimistic-lock version column
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// initVersion new rows start at version 1
func (m *VersionedModel) initVersion() {
	if m.Version == 0 {
		m.Version = 1
	}
}

// newID generates primary keys in the application so that every dialect
// (PostgreSQL in production, SQLite in tests) gets the same uuid text.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
