package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solveit/internal/dto"
	"solveit/internal/service"
	"solveit/pkg/response"
)

// StaffHandler staff directory endpoints
type StaffHandler struct {
	staffSvc service.StaffService
}

// NewStaffHandler creates a StaffHandler
func NewStaffHandler(staffSvc service.StaffService) *StaffHandler {
	return &StaffHandler{staffSvc: staffSvc}
}

// Create adds a directory entry and its login account
// POST /api/v1/staff
func (h *StaffHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.staffSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, result)
}

// List
// GET /api/v1/staff
func (h *StaffHandler) List(c *gin.Context) {
	var query dto.StaffListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	list, total, err := h.staffSvc.List(c.Request.Context(), &query)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKPage(c, list, total, query.GetPage(), query.GetPageSize())
}

// Leaderboard staff ranked by performance score
// GET /api/v1/staff/leaderboard
func (h *StaffHandler) Leaderboard(c *gin.Context) {
	var query dto.LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	list, err := h.staffSvc.Leaderboard(c.Request.Context(), &query)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get
// GET /api/v1/staff/:id
func (h *StaffHandler) Get(c *gin.Context) {
	staff, err := h.staffSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, staff)
}

// Update
// PUT /api/v1/staff/:id
func (h *StaffHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	staff, err := h.staffSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, staff)
}

// SetActive
// PUT /api/v1/staff/:id/active
func (h *StaffHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	staff, err := h.staffSvc.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, staff)
}

// MyCalendar deadline feed of the caller's open complaints
// GET /api/v1/staff/me/calendar.ics
func (h *StaffHandler) MyCalendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if actor.StaffID == "" {
		response.Forbidden(c, CodeForbidden, "account is not linked to a staff directory entry")
		return
	}
	h.writeCalendar(c, actor.StaffID)
}

// Calendar deadline feed of any staff member
// GET /api/v1/staff/:id/calendar.ics
func (h *StaffHandler) Calendar(c *gin.Context) {
	h.writeCalendar(c, c.Param("id"))
}

func (h *StaffHandler) writeCalendar(c *gin.Context, staffID string) {
	body, err := h.staffSvc.DeadlineCalendar(c.Request.Context(), staffID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="deadlines.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}
