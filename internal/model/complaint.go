package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Complaint complaint ticket, table complaints
type Complaint struct {
	ComplaintID     string                      `gorm:"type:uuid;primaryKey"                            json:"complaint_id"`
	TicketSeq       int                         `gorm:"not null;uniqueIndex"                            json:"-"`
	TicketCode      string                      `gorm:"type:varchar(20);not null;uniqueIndex"           json:"ticket_code"`
	Title           string                      `gorm:"type:varchar(200);not null"                      json:"title"`
	Description     string                      `gorm:"type:text;not null"                              json:"description"`
	Category        Category                    `gorm:"type:varchar(50);not null;index"                 json:"category"`
	Priority        Priority                    `gorm:"type:varchar(10);not null"                       json:"priority"`
	Status          Status                      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DueDate         time.Time                   `gorm:"not null;index"                                  json:"due_date"`
	EscalationLevel int                         `gorm:"not null;default:0"                              json:"escalation_level"`
	EscalationPath  datatypes.JSONSlice[string] `json:"escalation_path"`
	StudentID       string                      `gorm:"type:uuid;not null;index"                        json:"student_id"`
	StudentName     string                      `gorm:"type:varchar(100);not null"                      json:"student_name"`
	StudentEmail    string                      `gorm:"type:varchar(255);not null"                      json:"student_email"`
	StudentPhone    string                      `gorm:"type:varchar(30)"                                json:"student_phone,omitempty"`
	CollegeID       string                      `gorm:"type:varchar(50);index"                          json:"college_id,omitempty"`
	AssignedToID    *string                     `gorm:"type:uuid;index"                                 json:"assigned_to_id,omitempty"`
	AssignedToName  string                      `gorm:"type:varchar(100)"                               json:"assigned_to_name,omitempty"`
	Attachments     datatypes.JSONSlice[string] `json:"attachments,omitempty"`
	ResolutionNote  string                      `gorm:"type:text"                                       json:"resolution_note,omitempty"`
	RejectReason    string                      `gorm:"type:text"                                       json:"reject_reason,omitempty"`
	Rating          *int                        `json:"rating,omitempty"`
	RatingComment   string                      `gorm:"type:text"                                       json:"rating_comment,omitempty"`
	RatedAt         *time.Time                  `json:"rated_at,omitempty"`
	ResolvedAt      *time.Time                  `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time                  `json:"closed_at,omitempty"`
	VersionedModel

	// associations
	Updates []ComplaintUpdate `gorm:"foreignKey:ComplaintID;references:ComplaintID" json:"updates,omitempty"`
}

// TableName table name
func (Complaint) TableName() string { return "complaints" }

// BeforeCreate assigns the uuid
func (c *Complaint) BeforeCreate(*gorm.DB) error {
	newID(&c.ComplaintID)
	c.initVersion()
	return nil
}

// TicketCodeFor formats the human-readable ticket code
func TicketCodeFor(seq int) string {
	return fmt.Sprintf("CMP-%03d", seq)
}

// Overdue past its due date while still in flight
func (c *Complaint) Overdue(now time.Time) bool {
	return c.Status.InFlight() && c.DueDate.Before(now)
}

// IsAssignedTo reports whether staffID is the current assignee
func (c *Complaint) IsAssignedTo(staffID string) bool {
	return c.AssignedToID != nil && *c.AssignedToID == staffID
}

// ComplaintUpdate append-only status history, table complaint_updates
type ComplaintUpdate struct {
	UpdateID       string    `gorm:"type:uuid;primaryKey"                                  json:"update_id"`
	ComplaintID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_complaint_update_seq" json:"complaint_id"`
	Seq            int       `gorm:"not null;uniqueIndex:idx_complaint_update_seq"           json:"seq"`
	Status         Status    `gorm:"type:varchar(20);not null"                             json:"status"`
	AssignedToID   *string   `gorm:"type:uuid"                                             json:"assigned_to_id,omitempty"`
	AssignedToName string    `gorm:"type:varchar(100)"                                     json:"assigned_to_name,omitempty"`
	Note           string    `gorm:"type:text"                                             json:"note,omitempty"`
	ActorID        *string   `gorm:"type:uuid"                                             json:"actor_id,omitempty"`
	ActorRole      string    `gorm:"type:varchar(20);not null"                             json:"actor_role"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                    json:"created_at"`
}

// TableName table name
func (ComplaintUpdate) TableName() string { return "complaint_updates" }

// BeforeCreate assigns the uuid
func (u *ComplaintUpdate) BeforeCreate(*gorm.DB) error {
	newID(&u.UpdateID)
	return nil
}

// ActorSystem actor role recorded for resolver and escalation entries
const ActorSystem = "system"
