package dto

import "time"

// ── staff requests ──

// CreateStaffRequest new directory entry plus its login account
type CreateStaffRequest struct {
	Name       string `json:"name"       binding:"required,min=2,max=100"`
	Email      string `json:"email"      binding:"required,email"`
	Phone      string `json:"phone"      binding:"omitempty,max=30"`
	Department string `json:"department" binding:"required,complaint_category"`
	Rank       string `json:"rank"       binding:"required,staff_rank"`
	CollegeID  string `json:"college_id" binding:"omitempty,max=50"`
}

// UpdateStaffRequest profile changes; nil fields are left alone
type UpdateStaffRequest struct {
	Name       *string `json:"name"       binding:"omitempty,min=2,max=100"`
	Phone      *string `json:"phone"      binding:"omitempty,max=30"`
	Department *string `json:"department" binding:"omitempty,complaint_category"`
	Rank       *string `json:"rank"       binding:"omitempty,staff_rank"`
	CollegeID  *string `json:"college_id" binding:"omitempty,max=50"`
	Version    int     `json:"version"    binding:"required,min=1"`
}

// SetActiveRequest activate / deactivate
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// StaffListQuery directory filters
type StaffListQuery struct {
	PaginationRequest
	Department string `form:"department" binding:"omitempty,complaint_category"`
	Rank       string `form:"rank"       binding:"omitempty,staff_rank"`
	Active     *bool  `form:"active"`
}

// LeaderboardQuery leaderboard filters
type LeaderboardQuery struct {
	Department string `form:"department" binding:"omitempty,complaint_category"`
	Limit      int    `form:"limit"      binding:"omitempty,min=1,max=100"`
}

// ── staff responses ──

// StaffResponse directory entry
type StaffResponse struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id,omitempty"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone,omitempty"`
	Department          string     `json:"department"`
	Rank                string     `json:"rank"`
	Title               string     `json:"title"`
	CollegeID           string     `json:"college_id,omitempty"`
	IsActive            bool       `json:"is_active"`
	AssignedComplaints  int        `json:"assigned_complaints"`
	ResolvedComplaints  int        `json:"resolved_complaints"`
	EscalatedComplaints int        `json:"escalated_complaints"`
	CurrentWorkload     int        `json:"current_workload"`
	PerformanceScore    int        `json:"performance_score"`
	AverageRating       float64    `json:"average_rating"`
	RatingCount         int        `json:"rating_count"`
	LastAssignedAt      *time.Time `json:"last_assigned_at,omitempty"`
	Version             int        `json:"version"`
}

// CreateStaffResponse includes the one-time temporary password
type CreateStaffResponse struct {
	Staff        StaffResponse `json:"staff"`
	TempPassword string        `json:"temp_password"`
}
