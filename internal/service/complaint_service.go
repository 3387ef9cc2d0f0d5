package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"solveit/internal/dto"
	"solveit/internal/metrics"
	"solveit/internal/model"
	"solveit/internal/notify"
	"solveit/internal/repository"
	pkgerrors "solveit/pkg/errors"
)

const maxAttachments = 10

// NoStaffWarning returned with a stored complaint nobody could take yet
const NoStaffWarning = "no staff member is currently available for this department; the complaint is queued as pending"

// ComplaintService complaint lifecycle
type ComplaintService interface {
	Submit(ctx context.Context, req *dto.SubmitComplaintRequest, actor Actor) (*dto.SubmitComplaintResponse, error)
	RetryAssignment(ctx context.Context, id string, actor Actor) (*dto.ComplaintResponse, error)
	Get(ctx context.Context, id string, actor Actor) (*dto.ComplaintResponse, error)
	GetByTicket(ctx context.Context, code string, actor Actor) (*dto.ComplaintResponse, error)
	List(ctx context.Context, query *dto.ComplaintListQuery, actor Actor) ([]dto.ComplaintResponse, int64, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, actor Actor) (*dto.ComplaintResponse, error)
	Rate(ctx context.Context, id string, req *dto.RateComplaintRequest, actor Actor) (*dto.ComplaintResponse, error)
	History(ctx context.Context, id string, actor Actor) ([]dto.ComplaintUpdateResponse, error)
}

type complaintService struct {
	repo       *repository.Repository
	resolver   *AssignmentResolver
	scorer     *PerformanceScorer
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewComplaintService creates a ComplaintService
func NewComplaintService(
	repo *repository.Repository,
	resolver *AssignmentResolver,
	scorer *PerformanceScorer,
	dispatcher notify.Dispatcher,
	m *metrics.Metrics,
	logger *zap.Logger,
) ComplaintService {
	return &complaintService{
		repo:       repo,
		resolver:   resolver,
		scorer:     scorer,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ────────────────────── Submit ──────────────────────

func (s *complaintService) Submit(ctx context.Context, req *dto.SubmitComplaintRequest, actor Actor) (*dto.SubmitComplaintResponse, error) {
	if !actor.IsStudent() {
		return nil, fmt.Errorf("only students submit complaints: %w", pkgerrors.ErrForbidden)
	}
	c, err := s.newComplaint(req, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c.DueDate = s.resolver.DueDate(c.Priority, now, req.DueDate)

	var assignee *model.StaffMember
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Complaint.Create(ctx, c); err != nil {
			return err
		}
		if err := tx.Complaint.AppendUpdate(ctx, &model.ComplaintUpdate{
			ComplaintID: c.ComplaintID,
			Status:      model.StatusPending,
			Note:        "Complaint submitted",
			ActorID:     actor.ref(),
			ActorRole:   string(actor.Role),
		}); err != nil {
			return err
		}
		staff, err := s.resolver.Assign(ctx, tx, c, now)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrNoEligibleStaff) {
				return nil
			}
			return err
		}
		assignee = staff
		return nil
	})
	if err != nil {
		s.logger.Error("submit complaint failed", zap.String("student_id", actor.UserID), zap.Error(err))
		return nil, err
	}

	s.metrics.ComplaintSubmitted(string(c.Category), string(c.Priority))
	resp := &dto.SubmitComplaintResponse{}
	if assignee == nil {
		s.metrics.AssignmentMissed(string(c.Category))
		s.logger.Warn("no eligible staff, complaint left pending",
			zap.String("ticket", c.TicketCode),
			zap.String("department", string(c.Category)),
			zap.String("college_id", c.CollegeID))
		resp.Warning = NoStaffWarning
	} else {
		s.metrics.Transition(string(model.StatusPending), string(model.StatusAssigned))
		s.dispatcher.Notify(ctx, assignedMessage(c, assignee))
		s.dispatcher.Notify(ctx, statusMessage(c, "Assigned to "+assignee.Name))
	}

	fresh, err := s.load(ctx, c.ComplaintID)
	if err != nil {
		return nil, err
	}
	resp.Complaint = *toComplaintResponse(fresh, now)
	return resp, nil
}

// newComplaint validates the request and builds the pending complaint
func (s *complaintService) newComplaint(req *dto.SubmitComplaintRequest, actor Actor) (*model.Complaint, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.Invalid("title", "must not be empty")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, pkgerrors.Invalid("description", "must not be empty")
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, pkgerrors.Invalid("category", "must not be empty")
	}
	priority, ok := model.ParsePriority(req.Priority)
	if !ok {
		return nil, pkgerrors.Invalid("priority", "must be one of low, medium, high, urgent")
	}
	if actor.UserID == "" || strings.TrimSpace(actor.Name) == "" || strings.TrimSpace(actor.Email) == "" {
		return nil, pkgerrors.Invalid("student", "identity must carry id, name and email")
	}
	if len(req.Attachments) > maxAttachments {
		return nil, pkgerrors.Invalid("attachments", "at most %d attachments", maxAttachments)
	}
	for i, a := range req.Attachments {
		u, err := url.Parse(a)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, pkgerrors.Invalid(fmt.Sprintf("attachments[%d]", i), "must be an http or https URL")
		}
	}

	category := s.resolver.ResolveDepartment(req.Category)
	return &model.Complaint{
		Title:          title,
		Description:    description,
		Category:       category,
		Priority:       priority,
		Status:         model.StatusPending,
		EscalationPath: category.EscalationPath(),
		StudentID:      actor.UserID,
		StudentName:    actor.Name,
		StudentEmail:   actor.Email,
		StudentPhone:   actor.Phone,
		CollegeID:      actor.CollegeID,
		Attachments:    req.Attachments,
		VersionedModel: model.VersionedModel{BaseModel: model.BaseModel{CreatedBy: actor.ref()}},
	}, nil
}

// ────────────────────── RetryAssignment ──────────────────────

func (s *complaintService) RetryAssignment(ctx context.Context, id string, actor Actor) (*dto.ComplaintResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != model.StatusPending {
		return nil, fmt.Errorf("complaint is %s, only pending complaints can be assigned: %w", c.Status, ErrInvalidTransition)
	}

	now := s.now()
	var assignee *model.StaffMember
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		staff, err := s.resolver.Assign(ctx, tx, c, now)
		assignee = staff
		return err
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrNoEligibleStaff) {
			s.logger.Error("retry assignment failed", zap.String("complaint_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.Transition(string(model.StatusPending), string(model.StatusAssigned))
	s.dispatcher.Notify(ctx, assignedMessage(c, assignee))
	s.dispatcher.Notify(ctx, statusMessage(c, "Assigned to "+assignee.Name))

	fresh, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toComplaintResponse(fresh, now), nil
}

// ────────────────────── Get / List / History ──────────────────────

func (s *complaintService) Get(ctx context.Context, id string, actor Actor) (*dto.ComplaintResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(c, actor); err != nil {
		return nil, err
	}
	return toComplaintResponse(c, s.now()), nil
}

func (s *complaintService) GetByTicket(ctx context.Context, code string, actor Actor) (*dto.ComplaintResponse, error) {
	c, err := s.repo.Complaint.GetByTicketCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	if err := canView(c, actor); err != nil {
		return nil, err
	}
	return toComplaintResponse(c, s.now()), nil
}

func (s *complaintService) List(ctx context.Context, query *dto.ComplaintListQuery, actor Actor) ([]dto.ComplaintResponse, int64, error) {
	filter := repository.ComplaintFilter{
		Status:   model.Status(query.Status),
		Priority: model.Priority(query.Priority),
		Offset:   query.GetOffset(),
		Limit:    query.GetPageSize(),
	}
	if query.Category != "" {
		filter.Category = model.ResolveCategory(query.Category)
	}
	now := s.now()
	if query.Overdue {
		filter.OverdueAt = &now
	}

	switch {
	case actor.IsAdmin():
		filter.AssignedToID = query.AssignedTo
	case actor.IsStaff():
		if actor.StaffID == "" {
			return []dto.ComplaintResponse{}, 0, nil
		}
		filter.AssignedToID = actor.StaffID
	default:
		filter.StudentID = actor.UserID
	}

	list, total, err := s.repo.Complaint.List(ctx, filter)
	if err != nil {
		s.logger.Error("list complaints failed", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.ComplaintResponse, 0, len(list))
	for i := range list {
		out = append(out, *toComplaintResponse(&list[i], now))
	}
	return out, total, nil
}

func (s *complaintService) History(ctx context.Context, id string, actor Actor) ([]dto.ComplaintUpdateResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canView(c, actor); err != nil {
		return nil, err
	}
	return toUpdateResponses(c.Updates), nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *complaintService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, actor Actor) (*dto.ComplaintResponse, error) {
	to, ok := model.ParseStatus(req.Status)
	if !ok {
		return nil, pkgerrors.Invalid("status", "unknown status %q", req.Status)
	}
	note := strings.TrimSpace(req.Note)

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canAct(c, to, actor); err != nil {
		return nil, err
	}
	// a stale client, or a second attempt at a transition that already happened
	if req.Version != nil && *req.Version != c.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if c.Status == to {
		return nil, pkgerrors.ErrOptimisticLock
	}
	if !model.CanTransition(c.Status, to) || to == model.StatusAssigned || to == model.StatusEscalated {
		return nil, fmt.Errorf("%s -> %s: %w", c.Status, to, ErrInvalidTransition)
	}

	now := s.now()
	changes := map[string]interface{}{
		"status":     to,
		"updated_by": actor.ref(),
	}
	switch to {
	case model.StatusInProgress:
		if note == "" {
			return nil, pkgerrors.Invalid("note", "an update note is required to start work")
		}
	case model.StatusResolved:
		if note == "" {
			return nil, pkgerrors.Invalid("note", "a resolution note is required")
		}
		changes["resolution_note"] = note
		changes["resolved_at"] = now
	case model.StatusRejected:
		if note == "" {
			return nil, pkgerrors.Invalid("note", "a rejection reason is required")
		}
		changes["reject_reason"] = note
	case model.StatusClosed:
		changes["closed_at"] = now
	}

	from := c.Status
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Complaint.CompareAndUpdate(ctx, c.ComplaintID, c.Status, c.Version, changes); err != nil {
			return err
		}
		if err := tx.Complaint.AppendUpdate(ctx, &model.ComplaintUpdate{
			ComplaintID:    c.ComplaintID,
			Status:         to,
			AssignedToID:   c.AssignedToID,
			AssignedToName: c.AssignedToName,
			Note:           note,
			ActorID:        actor.ref(),
			ActorRole:      string(actor.Role),
		}); err != nil {
			return err
		}
		return s.applyStaffEffects(ctx, tx, c, to)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConflict) {
			s.logger.Info("status update lost a race",
				zap.String("complaint_id", id), zap.String("to", string(to)))
		} else {
			s.logger.Error("status update failed", zap.String("complaint_id", id), zap.Error(err))
		}
		return nil, err
	}
	s.metrics.Transition(string(from), string(to))

	fresh, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if to == model.StatusResolved {
		s.dispatcher.Notify(ctx, resolvedMessage(fresh))
	} else {
		s.dispatcher.Notify(ctx, statusMessage(fresh, note))
	}
	return toComplaintResponse(fresh, now), nil
}

// applyStaffEffects counter changes owed to the current assignee by a staff-driven transition
func (s *complaintService) applyStaffEffects(ctx context.Context, tx *repository.Repository, c *model.Complaint, to model.Status) error {
	if c.AssignedToID == nil {
		return nil
	}
	staffID := *c.AssignedToID
	var err error
	switch to {
	case model.StatusResolved:
		err = tx.Staff.ApplyResolution(ctx, staffID)
	case model.StatusRejected:
		err = tx.Staff.ApplyRelease(ctx, staffID)
	default:
		return nil
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("assignee missing from directory", zap.String("staff_id", staffID))
			return nil
		}
		return err
	}
	return s.scorer.Recompute(ctx, tx, staffID)
}

// ────────────────────── Rate ──────────────────────

func (s *complaintService) Rate(ctx context.Context, id string, req *dto.RateComplaintRequest, actor Actor) (*dto.ComplaintResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.Invalid("rating", "must be between 1 and 5")
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsStudent() || c.StudentID != actor.UserID {
		return nil, fmt.Errorf("only the submitting student may rate: %w", ErrAccessDenied)
	}
	if c.Status != model.StatusResolved {
		return nil, ErrNotRatable
	}
	if c.Rating != nil {
		return nil, ErrAlreadyRated
	}

	now := s.now()
	comment := strings.TrimSpace(req.Comment)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Complaint.CompareAndUpdate(ctx, c.ComplaintID, c.Status, c.Version, map[string]interface{}{
			"rating":         req.Rating,
			"rating_comment": comment,
			"rated_at":       now,
		}); err != nil {
			return err
		}
		if c.AssignedToID == nil {
			return nil
		}
		if err := tx.Staff.ApplyRating(ctx, *c.AssignedToID, req.Rating); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return s.scorer.Recompute(ctx, tx, *c.AssignedToID)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrConflict) {
			return nil, err
		}
		s.logger.Error("rate complaint failed", zap.String("complaint_id", id), zap.Error(err))
		return nil, err
	}

	fresh, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh.AssignedToID != nil {
		if staff, err := s.repo.Staff.GetByID(ctx, *fresh.AssignedToID); err == nil {
			s.dispatcher.Notify(ctx, ratedMessage(fresh, staff))
		}
	}
	return toComplaintResponse(fresh, now), nil
}

// ── helpers ──

func (s *complaintService) load(ctx context.Context, id string) (*model.Complaint, error) {
	c, err := s.repo.Complaint.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return c, nil
}

// canView students see their own complaints, staff those they hold or have held
func canView(c *model.Complaint, actor Actor) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsStudent():
		if c.StudentID == actor.UserID {
			return nil
		}
	case actor.IsStaff():
		if actor.StaffID == "" {
			break
		}
		if c.IsAssignedTo(actor.StaffID) {
			return nil
		}
		for _, u := range c.Updates {
			if u.AssignedToID != nil && *u.AssignedToID == actor.StaffID {
				return nil
			}
		}
	}
	return ErrAccessDenied
}

// canAct who may drive a complaint to the target status
func canAct(c *model.Complaint, to model.Status, actor Actor) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsStaff():
		if to == model.StatusClosed {
			return ErrAdminRequired
		}
		if actor.StaffID == "" || !c.IsAssignedTo(actor.StaffID) {
			return ErrNotAssignee
		}
		return nil
	}
	return fmt.Errorf("students cannot change complaint status: %w", pkgerrors.ErrForbidden)
}

func toComplaintResponse(c *model.Complaint, now time.Time) *dto.ComplaintResponse {
	resp := &dto.ComplaintResponse{
		ID:              c.ComplaintID,
		TicketCode:      c.TicketCode,
		Title:           c.Title,
		Description:     c.Description,
		Category:        string(c.Category),
		Priority:        string(c.Priority),
		Status:          string(c.Status),
		DueDate:         c.DueDate,
		Overdue:         c.Overdue(now),
		EscalationLevel: c.EscalationLevel,
		EscalationPath:  []string(c.EscalationPath),
		Student: dto.ContactResponse{
			ID:        c.StudentID,
			Name:      c.StudentName,
			Email:     c.StudentEmail,
			Phone:     c.StudentPhone,
			CollegeID: c.CollegeID,
		},
		Attachments:    []string(c.Attachments),
		ResolutionNote: c.ResolutionNote,
		RejectReason:   c.RejectReason,
		Rating:         c.Rating,
		RatingComment:  c.RatingComment,
		ResolvedAt:     c.ResolvedAt,
		ClosedAt:       c.ClosedAt,
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		History:        toUpdateResponses(c.Updates),
	}
	if c.AssignedToID != nil {
		resp.AssignedTo = &dto.AssigneeResponse{ID: *c.AssignedToID, Name: c.AssignedToName}
	}
	return resp
}

func toUpdateResponses(updates []model.ComplaintUpdate) []dto.ComplaintUpdateResponse {
	out := make([]dto.ComplaintUpdateResponse, 0, len(updates))
	for _, u := range updates {
		r := dto.ComplaintUpdateResponse{
			Seq:       u.Seq,
			Status:    string(u.Status),
			Note:      u.Note,
			ActorRole: u.ActorRole,
			CreatedAt: u.CreatedAt,
		}
		if u.AssignedToID != nil {
			r.AssignedTo = &dto.AssigneeResponse{ID: *u.AssignedToID, Name: u.AssignedToName}
		}
		if u.ActorID != nil {
			r.ActorID = *u.ActorID
		}
		out = append(out, r)
	}
	return out
}
