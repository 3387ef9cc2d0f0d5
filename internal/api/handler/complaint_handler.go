package handler

import (
	"github.com/gin-gonic/gin"

	"solveit/internal/dto"
	"solveit/internal/service"
	"solveit/pkg/response"
)

// ComplaintHandler complaint lifecycle endpoints
type ComplaintHandler struct {
	complaintSvc service.ComplaintService
}

// NewComplaintHandler creates a ComplaintHandler
func NewComplaintHandler(complaintSvc service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaintSvc: complaintSvc}
}

// Submit files a complaint and assigns it
// POST /api/v1/complaints
func (h *ComplaintHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SubmitComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.complaintSvc.Submit(c.Request.Context(), &req, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, result)
}

// List complaints visible to the caller
// GET /api/v1/complaints
func (h *ComplaintHandler) List(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var query dto.ComplaintListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	list, total, err := h.complaintSvc.List(c.Request.Context(), &query, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKPage(c, list, total, query.GetPage(), query.GetPageSize())
}

// Get
// GET /api/v1/complaints/:id
func (h *ComplaintHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	complaint, err := h.complaintSvc.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, complaint)
}

// GetByTicket looks a complaint up by its CMP-nnn code
// GET /api/v1/complaints/ticket/:code
func (h *ComplaintHandler) GetByTicket(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	complaint, err := h.complaintSvc.GetByTicket(c.Request.Context(), c.Param("code"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, complaint)
}

// History append-only update log
// GET /api/v1/complaints/:id/history
func (h *ComplaintHandler) History(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	history, err := h.complaintSvc.History(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, gin.H{"list": history})
}

// UpdateStatus
// PUT /api/v1/complaints/:id/status
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	complaint, err := h.complaintSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, complaint)
}

// Rate
// POST /api/v1/complaints/:id/rating
func (h *ComplaintHandler) Rate(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	complaint, err := h.complaintSvc.Rate(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, complaint)
}

// Assign reruns assignment for a complaint left pending
// POST /api/v1/complaints/:id/assign
func (h *ComplaintHandler) Assign(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	complaint, err := h.complaintSvc.RetryAssignment(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, complaint)
}
