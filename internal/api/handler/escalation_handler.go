package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"solveit/internal/service"
	"solveit/pkg/response"
)

// EscalationHandler manual escalation triggers (admin)
type EscalationHandler struct {
	escalationSvc service.EscalationService
	now           func() time.Time
}

// NewEscalationHandler creates an EscalationHandler
func NewEscalationHandler(escalationSvc service.EscalationService) *EscalationHandler {
	return &EscalationHandler{
		escalationSvc: escalationSvc,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Sweep runs one escalation pass immediately
// POST /api/v1/escalations/sweep
func (h *EscalationHandler) Sweep(c *gin.Context) {
	result, err := h.escalationSvc.Sweep(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, result)
}

// EscalateOne moves a single complaint one level up
// POST /api/v1/complaints/:id/escalate
func (h *EscalationHandler) EscalateOne(c *gin.Context) {
	result, err := h.escalationSvc.EscalateOne(c.Request.Context(), c.Param("id"), h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, result)
}
