package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"solveit/internal/dto"
	"solveit/internal/model"
	"solveit/internal/repository"
	pkgerrors "solveit/pkg/errors"
)

const (
	tempPasswordLength    = 12
	defaultLeaderboardLen = 10
	calendarEventLength   = 30 * time.Minute
)

// StaffService staff directory
type StaffService interface {
	Create(ctx context.Context, req *dto.CreateStaffRequest, callerID string) (*dto.CreateStaffResponse, error)
	Get(ctx context.Context, id string) (*dto.StaffResponse, error)
	List(ctx context.Context, query *dto.StaffListQuery) ([]dto.StaffResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateStaffRequest, callerID string) (*dto.StaffResponse, error)
	SetActive(ctx context.Context, id string, active bool) (*dto.StaffResponse, error)
	Leaderboard(ctx context.Context, query *dto.LeaderboardQuery) ([]dto.StaffResponse, error)
	// DeadlineCalendar iCalendar feed of the staff member's open complaints
	DeadlineCalendar(ctx context.Context, staffID string) ([]byte, error)
}

type staffService struct {
	repo    *repository.Repository
	logger  *zap.Logger
	baseURL string
	now     func() time.Time
}

// NewStaffService creates a StaffService. baseURL prefixes links in calendar events.
func NewStaffService(repo *repository.Repository, logger *zap.Logger, baseURL string) StaffService {
	return &staffService{
		repo:    repo,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── Create ──────────────────────

func (s *staffService) Create(ctx context.Context, req *dto.CreateStaffRequest, callerID string) (*dto.CreateStaffResponse, error) {
	department, ok := model.ParseCategory(req.Department)
	if !ok {
		return nil, pkgerrors.Invalid("department", "unknown department %q", req.Department)
	}
	rank, ok := model.ParseRank(req.Rank)
	if !ok {
		return nil, pkgerrors.Invalid("rank", "unknown rank %q", req.Rank)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.Staff.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tempPwd, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPwd), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	audit := model.VersionedModel{BaseModel: model.BaseModel{CreatedBy: optionalID(callerID)}}
	user := &model.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		Phone:              req.Phone,
		CollegeID:          req.CollegeID,
		Role:               model.RoleStaff,
		PasswordHash:       string(hash),
		MustChangePassword: true,
		IsActive:           true,
		VersionedModel:     audit,
	}
	staff := &model.StaffMember{
		Name:           user.Name,
		Email:          email,
		Phone:          req.Phone,
		Department:     department,
		Rank:           rank,
		CollegeID:      req.CollegeID,
		IsActive:       true,
		VersionedModel: audit,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		staff.UserID = &user.UserID
		return tx.Staff.Create(ctx, staff)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("create staff failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("staff member created",
		zap.String("staff_id", staff.StaffID),
		zap.String("department", string(department)),
		zap.String("rank", rank.String()))
	return &dto.CreateStaffResponse{Staff: *toStaffResponse(staff), TempPassword: tempPwd}, nil
}

// ────────────────────── Get / List / Leaderboard ──────────────────────

func (s *staffService) Get(ctx context.Context, id string) (*dto.StaffResponse, error) {
	staff, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStaffResponse(staff), nil
}

func (s *staffService) List(ctx context.Context, query *dto.StaffListQuery) ([]dto.StaffResponse, int64, error) {
	filter := repository.StaffFilter{
		Active: query.Active,
		Offset: query.GetOffset(),
		Limit:  query.GetPageSize(),
	}
	if query.Department != "" {
		filter.Department = model.ResolveCategory(query.Department)
	}
	if query.Rank != "" {
		if r, ok := model.ParseRank(query.Rank); ok {
			filter.Rank = &r
		}
	}
	members, total, err := s.repo.Staff.List(ctx, filter)
	if err != nil {
		s.logger.Error("list staff failed", zap.Error(err))
		return nil, 0, err
	}
	return toStaffResponses(members), total, nil
}

func (s *staffService) Leaderboard(ctx context.Context, query *dto.LeaderboardQuery) ([]dto.StaffResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultLeaderboardLen
	}
	var department model.Category
	if query.Department != "" {
		department = model.ResolveCategory(query.Department)
	}
	members, err := s.repo.Staff.Leaderboard(ctx, department, limit)
	if err != nil {
		return nil, err
	}
	return toStaffResponses(members), nil
}

// ────────────────────── Update / SetActive ──────────────────────

func (s *staffService) Update(ctx context.Context, id string, req *dto.UpdateStaffRequest, callerID string) (*dto.StaffResponse, error) {
	staff, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != staff.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.Name != nil {
		staff.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		staff.Phone = *req.Phone
	}
	if req.CollegeID != nil {
		staff.CollegeID = *req.CollegeID
	}
	if req.Department != nil {
		d, ok := model.ParseCategory(*req.Department)
		if !ok {
			return nil, pkgerrors.Invalid("department", "unknown department %q", *req.Department)
		}
		staff.Department = d
	}
	if req.Rank != nil {
		r, ok := model.ParseRank(*req.Rank)
		if !ok {
			return nil, pkgerrors.Invalid("rank", "unknown rank %q", *req.Rank)
		}
		staff.Rank = r
	}
	staff.UpdatedBy = optionalID(callerID)

	if err := s.repo.Staff.Update(ctx, staff); err != nil {
		if !errors.Is(err, pkgerrors.ErrConflict) {
			s.logger.Error("update staff failed", zap.String("staff_id", id), zap.Error(err))
		}
		return nil, err
	}
	return toStaffResponse(staff), nil
}

// SetActive inactive staff keep their open complaints but receive no new ones
func (s *staffService) SetActive(ctx context.Context, id string, active bool) (*dto.StaffResponse, error) {
	if err := s.repo.Staff.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// ────────────────────── DeadlineCalendar ──────────────────────

func (s *staffService) DeadlineCalendar(ctx context.Context, staffID string) ([]byte, error) {
	staff, err := s.load(ctx, staffID)
	if err != nil {
		return nil, err
	}
	open, err := s.repo.Complaint.ListOpenByAssignee(ctx, staffID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SolveIT//Complaint Deadlines//EN")
	cal.SetXWRCalName(fmt.Sprintf("SolveIT deadlines: %s", staff.Name))
	cal.SetXWRCalDesc("Due dates of complaints currently assigned to you")

	for _, c := range open {
		event := cal.AddEvent(c.ComplaintID + "@solveit")
		event.SetDtStampTime(now)
		event.SetCreatedTime(c.CreatedAt)
		event.SetModifiedAt(c.UpdatedAt)
		event.SetStartAt(c.DueDate)
		event.SetEndAt(c.DueDate.Add(calendarEventLength))
		event.SetSummary(fmt.Sprintf("[%s] %s due", c.TicketCode, c.Title))
		event.SetDescription(fmt.Sprintf("%s priority, %s, escalation level %d\n%s",
			c.Priority, c.Status, c.EscalationLevel, c.Description))
		event.AddProperty(ics.ComponentPropertyCategories, string(c.Category))
		if s.baseURL != "" {
			event.SetURL(fmt.Sprintf("%s/complaints/%s", s.baseURL, c.ComplaintID))
		}
		alarm := event.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger("-PT1H")
	}
	return []byte(cal.Serialize()), nil
}

// ── helpers ──

func (s *staffService) load(ctx context.Context, id string) (*model.StaffMember, error) {
	staff, err := s.repo.Staff.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return staff, nil
}

func toStaffResponse(m *model.StaffMember) *dto.StaffResponse {
	resp := &dto.StaffResponse{
		ID:                  m.StaffID,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Department:          string(m.Department),
		Rank:                m.Rank.String(),
		Title:               m.Title(),
		CollegeID:           m.CollegeID,
		IsActive:            m.IsActive,
		AssignedComplaints:  m.AssignedComplaints,
		ResolvedComplaints:  m.ResolvedComplaints,
		EscalatedComplaints: m.EscalatedComplaints,
		CurrentWorkload:     m.CurrentWorkload,
		PerformanceScore:    m.PerformanceScore,
		AverageRating:       m.AverageRating,
		RatingCount:         m.RatingCount,
		LastAssignedAt:      m.LastAssignedAt,
		Version:             m.Version,
	}
	if m.UserID != nil {
		resp.UserID = *m.UserID
	}
	return resp
}

func toStaffResponses(members []model.StaffMember) []dto.StaffResponse {
	out := make([]dto.StaffResponse, 0, len(members))
	for i := range members {
		out = append(out, *toStaffResponse(&members[i]))
	}
	return out
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// generateTempPassword random password with at least one letter and one digit
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}

	result := make([]byte, length)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
