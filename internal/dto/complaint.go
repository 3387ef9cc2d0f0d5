package dto

import "time"

// ── complaint requests ──

// SubmitComplaintRequest new complaint. Unknown categories are routed to the default department.
type SubmitComplaintRequest struct {
	Title       string     `json:"title"       binding:"required,min=3,max=200"`
	Description string     `json:"description" binding:"required,min=5,max=5000"`
	Category    string     `json:"category"    binding:"required,max=50"`
	Priority    string     `json:"priority"    binding:"required,complaint_priority"`
	DueDate     *time.Time `json:"due_date"`
	Attachments []string   `json:"attachments" binding:"omitempty,max=10,dive,url"`
}

// UpdateStatusRequest staff/admin transition
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,complaint_status"`
	Note   string `json:"note"   binding:"max=2000"`
	// Version when set must match the complaint's current version
	Version *int `json:"version" binding:"omitempty,min=1"`
}

// RateComplaintRequest student rating of a finished complaint
type RateComplaintRequest struct {
	Rating  int    `json:"rating"  binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// ComplaintListQuery list filters
type ComplaintListQuery struct {
	PaginationRequest
	Status     string `form:"status"      binding:"omitempty,complaint_status"`
	Category   string `form:"category"    binding:"omitempty,complaint_category"`
	Priority   string `form:"priority"    binding:"omitempty,complaint_priority"`
	AssignedTo string `form:"assigned_to" binding:"omitempty,uuid"`
	Overdue    bool   `form:"overdue"`
}

// ── complaint responses ──

// ComplaintResponse complaint snapshot
type ComplaintResponse struct {
	ID              string                    `json:"id"`
	TicketCode      string                    `json:"ticket_code"`
	Title           string                    `json:"title"`
	Description     string                    `json:"description"`
	Category        string                    `json:"category"`
	Priority        string                    `json:"priority"`
	Status          string                    `json:"status"`
	DueDate         time.Time                 `json:"due_date"`
	Overdue         bool                      `json:"overdue"`
	EscalationLevel int                       `json:"escalation_level"`
	EscalationPath  []string                  `json:"escalation_path"`
	Student         ContactResponse           `json:"student"`
	AssignedTo      *AssigneeResponse         `json:"assigned_to,omitempty"`
	Attachments     []string                  `json:"attachments,omitempty"`
	ResolutionNote  string                    `json:"resolution_note,omitempty"`
	RejectReason    string                    `json:"reject_reason,omitempty"`
	Rating          *int                      `json:"rating,omitempty"`
	RatingComment   string                    `json:"rating_comment,omitempty"`
	ResolvedAt      *time.Time                `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time                `json:"closed_at,omitempty"`
	Version         int                       `json:"version"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
	History         []ComplaintUpdateResponse `json:"history,omitempty"`
}

// ContactResponse denormalized submitter contact
type ContactResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	CollegeID string `json:"college_id,omitempty"`
}

// AssigneeResponse current assignee
type AssigneeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ComplaintUpdateResponse one history entry
type ComplaintUpdateResponse struct {
	Seq        int               `json:"seq"`
	Status     string            `json:"status"`
	AssignedTo *AssigneeResponse `json:"assigned_to,omitempty"`
	Note       string            `json:"note,omitempty"`
	ActorID    string            `json:"actor_id,omitempty"`
	ActorRole  string            `json:"actor_role"`
	CreatedAt  time.Time         `json:"created_at"`
}

// SubmitComplaintResponse Submit result. Warning is set when the complaint was
// stored but no staff member could take it yet.
type SubmitComplaintResponse struct {
	Complaint ComplaintResponse `json:"complaint"`
	Warning   string            `json:"warning,omitempty"`
}

// ── escalation ──

// SweepResponse outcome of one escalation sweep
type SweepResponse struct {
	Scanned   int                `json:"scanned"`
	Escalated int                `json:"escalated"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Results   []EscalationResult `json:"results,omitempty"`
}

// EscalationResult per-complaint outcome
type EscalationResult struct {
	ComplaintID string `json:"complaint_id"`
	TicketCode  string `json:"ticket_code"`
	FromLevel   int    `json:"from_level"`
	ToLevel     int    `json:"to_level,omitempty"`
	AssignedTo  string `json:"assigned_to,omitempty"`
	Outcome     string `json:"outcome"` // escalated | skipped | failed
	Reason      string `json:"reason,omitempty"`
}

// ── export ──

// ExportComplaintsQuery report filters; from/to are inclusive UTC calendar days
type ExportComplaintsQuery struct {
	Status   string `form:"status"   binding:"omitempty,complaint_status"`
	Category string `form:"category" binding:"omitempty,complaint_category"`
	From     string `form:"from"     binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to"       binding:"omitempty,datetime=2006-01-02"`
}

// ExportStaffQuery staff report filter
type ExportStaffQuery struct {
	Department string `form:"department" binding:"omitempty,complaint_category"`
}
