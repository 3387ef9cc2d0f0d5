package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"solveit/internal/model"
	"solveit/internal/repository"
)

var ErrExportGenerateFail = errors.New("failed to generate spreadsheet")

// exportLimit upper bound on rows per report
const exportLimit = 10000

// ExportFilter complaint report filters
type ExportFilter struct {
	Status   model.Status
	Category model.Category
	From     *time.Time
	To       *time.Time
}

// ExportService spreadsheet reports for administrators
type ExportService interface {
	ExportComplaints(ctx context.Context, filter ExportFilter) (*bytes.Buffer, string, error)
	ExportStaff(ctx context.Context, department model.Category) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ────────────────────── complaints ──────────────────────

var complaintHeaders = []string{
	"Ticket", "Title", "Department", "Priority", "Status", "Escalation Level",
	"Assigned To", "Student", "Student Email", "College", "Created", "Due", "Overdue",
	"Resolved", "Rating",
}

func (s *exportService) ExportComplaints(ctx context.Context, filter ExportFilter) (*bytes.Buffer, string, error) {
	list, _, err := s.repo.Complaint.List(ctx, repository.ComplaintFilter{
		Status:   filter.Status,
		Category: filter.Category,
		Limit:    exportLimit,
	})
	if err != nil {
		s.logger.Error("query complaints for export failed", zap.Error(err))
		return nil, "", err
	}

	now := s.now()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Complaints"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	if err := writeHeader(f, sheet, complaintHeaders); err != nil {
		return nil, "", ErrExportGenerateFail
	}
	overdueStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000", Bold: true},
	})

	row := 2
	for _, c := range list {
		if filter.From != nil && c.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && c.CreatedAt.After(*filter.To) {
			continue
		}
		resolved, rating := "", ""
		if c.ResolvedAt != nil {
			resolved = c.ResolvedAt.Format(time.DateTime)
		}
		if c.Rating != nil {
			rating = fmt.Sprint(*c.Rating)
		}
		overdue := "no"
		if c.Overdue(now) {
			overdue = "yes"
		}
		values := []interface{}{
			c.TicketCode, c.Title, string(c.Category), string(c.Priority), string(c.Status), c.EscalationLevel,
			c.AssignedToName, c.StudentName, c.StudentEmail, c.CollegeID,
			c.CreatedAt.Format(time.DateTime), c.DueDate.Format(time.DateTime), overdue,
			resolved, rating,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			s.logger.Error("write complaint row failed", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		if overdue == "yes" {
			_ = f.SetCellStyle(sheet, cell("M", row), cell("M", row), overdueStyle)
		}
		row++
	}
	_ = f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", colName(len(complaintHeaders)), row-1), nil)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("complaints_%s.xlsx", now.Format("20060102")), nil
}

// ────────────────────── staff ──────────────────────

var staffHeaders = []string{
	"Name", "Email", "Department", "Rank", "Title", "College", "Active",
	"Assigned", "Resolved", "Escalated", "Workload", "Score", "Avg Rating", "Ratings",
}

func (s *exportService) ExportStaff(ctx context.Context, department model.Category) (*bytes.Buffer, string, error) {
	members, _, err := s.repo.Staff.List(ctx, repository.StaffFilter{Department: department, Limit: exportLimit})
	if err != nil {
		s.logger.Error("query staff for export failed", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Staff"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	if err := writeHeader(f, sheet, staffHeaders); err != nil {
		return nil, "", ErrExportGenerateFail
	}

	for i, m := range members {
		values := []interface{}{
			m.Name, m.Email, string(m.Department), m.Rank.String(), m.Title(), m.CollegeID, m.IsActive,
			m.AssignedComplaints, m.ResolvedComplaints, m.EscalatedComplaints, m.CurrentWorkload,
			m.PerformanceScore, fmt.Sprintf("%.2f", m.AverageRating), m.RatingCount,
		}
		start, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			s.logger.Error("write staff row failed", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("staff_performance_%s.xlsx", s.now().Format("20060102")), nil
}

// ── helpers ──

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	for i, h := range headers {
		col := colName(i + 1)
		if err := f.SetCellValue(sheet, cell(col, 1), h); err != nil {
			return err
		}
		_ = f.SetColWidth(sheet, col, col, 18)
	}
	if err := f.SetCellStyle(sheet, "A1", cell(colName(len(headers)), 1), style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// colName 1-based column index to letters
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
