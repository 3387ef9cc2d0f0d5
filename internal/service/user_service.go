package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"solveit/internal/dto"
	"solveit/internal/model"
	"solveit/internal/repository"
	pkgerrors "solveit/pkg/errors"
)

const maxImportRows = 1000

var (
	ErrUserSelfChange    = fmt.Errorf("administrators cannot change their own role or status: %w", pkgerrors.ErrForbidden)
	ErrStaffRoleReserved = pkgerrors.Invalid("role", "staff accounts are created through the staff directory")
	ErrImportNoData      = pkgerrors.Invalid("file", "spreadsheet has no data rows (row 1 is the header)")
	ErrImportTooManyRows = pkgerrors.Invalid("file", "more than %d data rows", maxImportRows)
	ErrImportBadHeader   = pkgerrors.Invalid("file", "header must contain name and email columns")
)

// ImportUserRow one parsed spreadsheet row
type ImportUserRow struct {
	Row       int
	Name      string
	Email     string
	Phone     string
	CollegeID string
}

// UserService account administration
type UserService interface {
	Get(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, query *dto.UserListQuery) ([]dto.UserResponse, int64, error)
	SetActive(ctx context.Context, id string, active bool, callerID string) (*dto.UserResponse, error)
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) (*dto.UserResponse, error)
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	// ParseImportFile reads student rows from the first sheet of an xlsx file
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	// ImportStudents creates every valid row in one transaction; invalid rows are reported, not fatal
	ImportStudents(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) Get(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, user), nil
}

func (s *userService) List(ctx context.Context, query *dto.UserListQuery) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, repository.UserFilter{
		Role:    model.Role(query.Role),
		Keyword: strings.TrimSpace(query.Keyword),
		Offset:  query.GetOffset(),
		Limit:   query.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, *s.toResponse(ctx, &users[i]))
	}
	return out, total, nil
}

func (s *userService) SetActive(ctx context.Context, id string, active bool, callerID string) (*dto.UserResponse, error) {
	if id == callerID {
		return nil, ErrUserSelfChange
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	user.UpdatedBy = optionalID(callerID)
	if err := s.repo.User.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("account status changed", zap.String("user_id", id), zap.Bool("active", active))
	return s.toResponse(ctx, user), nil
}

func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) (*dto.UserResponse, error) {
	if id == callerID {
		return nil, ErrUserSelfChange
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		return nil, pkgerrors.Invalid("role", "unknown role %q", req.Role)
	}
	if role == model.RoleStaff {
		return nil, ErrStaffRoleReserved
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == model.RoleStaff {
		return nil, ErrStaffRoleReserved
	}
	user.Role = role
	user.UpdatedBy = optionalID(callerID)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("assign role failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return s.toResponse(ctx, user), nil
}

func (s *userService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	tempPassword, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		s.logger.Error("generate temp password failed", zap.Error(err))
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = true
	user.UpdatedBy = optionalID(callerID)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("reset password failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── import ──────────────────────

func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, pkgerrors.Invalid("file", "not a readable xlsx file: %v", err)
	}
	defer f.Close()

	sheetRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, pkgerrors.Invalid("file", "read sheet: %v", err)
	}
	if len(sheetRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseHeaderIndex(sheetRows[0])
	if col["name"] < 0 || col["email"] < 0 {
		return nil, ErrImportBadHeader
	}
	field := func(row []string, key string) string {
		if idx := col[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportUserRow
	for i := 1; i < len(sheetRows); i++ {
		r := sheetRows[i]
		item := ImportUserRow{
			Row:       i + 1,
			Name:      field(r, "name"),
			Email:     strings.ToLower(field(r, "email")),
			Phone:     field(r, "phone"),
			CollegeID: field(r, "college_id"),
		}
		if item.Name == "" && item.Email == "" && item.Phone == "" && item.CollegeID == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex column name -> index; missing columns map to -1
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{"name": -1, "email": -1, "phone": -1, "college_id": -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name", "full name":
			idx["name"] = i
		case "email", "e-mail":
			idx["email"] = i
		case "phone", "mobile":
			idx["phone"] = i
		case "college", "college_id", "college id":
			idx["college_id"] = i
		}
	}
	return idx
}

func (s *userService) ImportStudents(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}
	reject := func(row int, format string, args ...interface{}) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: fmt.Sprintf(format, args...)})
	}

	// phase 1: validate without writing
	type validated struct {
		row      ImportUserRow
		password string
		hash     []byte
	}
	var valid []validated
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		if row.Name == "" || row.Email == "" {
			reject(row.Row, "name and email are required")
			continue
		}
		if _, err := mail.ParseAddress(row.Email); err != nil {
			reject(row.Row, "invalid email %q", row.Email)
			continue
		}
		if first, dup := seen[row.Email]; dup {
			reject(row.Row, "email %s repeats row %d", row.Email, first)
			continue
		}
		seen[row.Email] = row.Row
		if _, err := s.repo.User.GetByEmail(ctx, row.Email); err == nil {
			reject(row.Row, "email already registered: %s", row.Email)
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		pwd, err := generateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
		if err != nil {
			reject(row.Row, "password hashing failed")
			continue
		}
		valid = append(valid, validated{row: row, password: pwd, hash: hash})
	}

	// phase 2: all-or-nothing insert
	if len(valid) == 0 {
		return resp, nil
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, v := range valid {
			user := &model.User{
				Name:               v.row.Name,
				Email:              v.row.Email,
				Phone:              v.row.Phone,
				CollegeID:          v.row.CollegeID,
				Role:               model.RoleStudent,
				PasswordHash:       string(v.hash),
				MustChangePassword: true,
				IsActive:           true,
				VersionedModel:     model.VersionedModel{BaseModel: model.BaseModel{CreatedBy: optionalID(callerID)}},
			}
			if err := tx.User.Create(ctx, user); err != nil {
				return fmt.Errorf("row %d: %w", v.row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("student import rolled back", zap.Error(err))
		return nil, err
	}

	for _, v := range valid {
		resp.Success++
		resp.Created = append(resp.Created, dto.ImportedUser{Row: v.row.Row, Email: v.row.Email, TempPassword: v.password})
	}
	s.logger.Info("students imported", zap.Int("created", resp.Success), zap.Int("rejected", resp.Failed))
	return resp, nil
}

// ── helpers ──

func (s *userService) load(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("query user failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *userService) toResponse(ctx context.Context, user *model.User) *dto.UserResponse {
	staffID := ""
	if user.Role == model.RoleStaff {
		if staff, err := s.repo.Staff.GetByUserID(ctx, user.UserID); err == nil {
			staffID = staff.StaffID
		}
	}
	resp := toUserResponse(user, staffID)
	resp.CreatedAt = user.CreatedAt.Format(time.RFC3339)
	return resp
}
