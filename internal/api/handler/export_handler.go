package handler

import (
	"bytes"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"solveit/internal/dto"
	"solveit/internal/model"
	"solveit/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler spreadsheet downloads (admin)
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportComplaints
// GET /api/v1/export/complaints?status=&category=&from=2026-01-01&to=2026-01-31
func (h *ExportHandler) ExportComplaints(c *gin.Context) {
	var query dto.ExportComplaintsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	filter := service.ExportFilter{}
	if query.Status != "" {
		filter.Status, _ = model.ParseStatus(query.Status)
	}
	if query.Category != "" {
		filter.Category, _ = model.ParseCategory(query.Category)
	}
	if query.From != "" {
		from, _ := time.Parse(time.DateOnly, query.From)
		filter.From = &from
	}
	if query.To != "" {
		to, _ := time.Parse(time.DateOnly, query.To)
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	buf, filename, err := h.exportSvc.ExportComplaints(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	writeXLSX(c, buf, filename)
}

// ExportStaff
// GET /api/v1/export/staff?department=
func (h *ExportHandler) ExportStaff(c *gin.Context) {
	var query dto.ExportStaffQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	var department model.Category
	if query.Department != "" {
		department, _ = model.ParseCategory(query.Department)
	}

	buf, filename, err := h.exportSvc.ExportStaff(c.Request.Context(), department)
	if err != nil {
		respondError(c, err)
		return
	}

	writeXLSX(c, buf, filename)
}

func writeXLSX(c *gin.Context, buf *bytes.Buffer, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
