package handler

import (
	"github.com/gin-gonic/gin"

	"solveit/internal/dto"
	"solveit/internal/service"
	"solveit/pkg/response"
)

// maxImportFileSize 5 MB
const maxImportFileSize = 5 << 20

// MaxImportRequestBytes body cap for the import upload, leaving room for multipart framing
const MaxImportRequestBytes = maxImportFileSize + 64<<10

// UserHandler account administration endpoints (admin)
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler creates a UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// List
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	var query dto.UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &query)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OKPage(c, users, total, query.GetPage(), query.GetPageSize())
}

// Get
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, user)
}

// SetActive
// PUT /api/v1/users/:id/active
func (h *UserHandler) SetActive(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userSvc.SetActive(c.Request.Context(), c.Param("id"), *req.Active, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, user)
}

// AssignRole
// PUT /api/v1/users/:id/role
func (h *UserHandler) AssignRole(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userSvc.AssignRole(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, user)
}

// ResetPassword issues a temporary password
// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.userSvc.ResetPassword(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, result)
}

// Import bulk-creates student accounts from an xlsx upload (form field "file")
// POST /api/v1/users/import
func (h *UserHandler) Import(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		respondBindError(c, err)
		return
	}
	if fh.Size > maxImportFileSize {
		response.BadRequest(c, CodeBadRequest, "import file exceeds 5 MB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	rows, err := h.userSvc.ParseImportFile(f)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.userSvc.ImportStudents(c.Request.Context(), rows, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, result)
}
