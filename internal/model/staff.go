package model

import (
	"time"

	"gorm.io/gorm"
)

// StaffMember staff directory entry, table staff_members
type StaffMember struct {
	StaffID             string     `gorm:"type:uuid;primaryKey"                              json:"staff_id"`
	UserID              *string    `gorm:"type:uuid;uniqueIndex"                             json:"user_id,omitempty"`
	Name                string     `gorm:"type:varchar(100);not null"                        json:"name"`
	Email               string     `gorm:"type:varchar(255);not null;uniqueIndex"            json:"email"`
	Phone               string     `gorm:"type:varchar(30)"                                  json:"phone,omitempty"`
	Department          Category   `gorm:"type:varchar(50);not null;index:idx_staff_lookup"  json:"department"`
	Rank                Rank       `gorm:"column:staff_rank;not null;index:idx_staff_lookup" json:"rank"`
	CollegeID           string     `gorm:"type:varchar(50);index:idx_staff_lookup"           json:"college_id,omitempty"`
	IsActive            bool       `gorm:"not null;default:true"                             json:"is_active"`
	AssignedComplaints  int        `gorm:"not null;default:0"                                json:"assigned_complaints"`
	ResolvedComplaints  int        `gorm:"not null;default:0"                                json:"resolved_complaints"`
	EscalatedComplaints int        `gorm:"not null;default:0"                                json:"escalated_complaints"`
	CurrentWorkload     int        `gorm:"not null;default:0"                                json:"current_workload"`
	PerformanceScore    int        `gorm:"not null;default:0"                                json:"performance_score"`
	AverageRating       float64    `gorm:"not null;default:0"                                json:"average_rating"`
	RatingCount         int        `gorm:"not null;default:0"                                json:"rating_count"`
	LastAssignedAt      *time.Time `json:"last_assigned_at,omitempty"`
	VersionedModel
}

// TableName table name
func (StaffMember) TableName() string { return "staff_members" }

// BeforeCreate assigns the uuid
func (s *StaffMember) BeforeCreate(*gorm.DB) error {
	newID(&s.StaffID)
	s.initVersion()
	return nil
}

// Title department role title for the member's rank; Assistants keep their rank label
func (s *StaffMember) Title() string {
	if s.Rank == RankAssistant {
		return string(s.Department) + " " + s.Rank.String()
	}
	path := s.Department.EscalationPath()
	if int(s.Rank) <= len(path) {
		return path[s.Rank-1]
	}
	return s.Rank.String()
}
