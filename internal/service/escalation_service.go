package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

const (
	outcomeEscalated = "escalated"
	outcomeSkipped   = "skipped"
	outcomeFailed    = "failed"
)

// EscalationService SLA enforcement: overdue complaints climb to the next authority
type EscalationService interface {
	// Sweep escalates every overdue complaint in one batch. Per-complaint
	// failures are recorded in the result and never abort the batch.
	Sweep(ctx context.Context, now time.Time) (*dto.SweepResponse, error)
	// EscalateOne escalates a single assigned or in-progress complaint regardless of its due date
	EscalateOne(ctx context.Context, id string, now time.Time) (*dto.EscalationResult, error)
}

type escalationService struct {
	repo       *repository.Repository
	scorer     *PerformanceScorer
	dispatcher notify.Dispatcher
	metrics    *metrics.Metrics
	logger     *zap.Logger
	batchSize  int
}

// NewEscalationService creates an EscalationService
func NewEscalationService(
	repo *repository.Repository,
	scorer *PerformanceScorer,
	dispatcher notify.Dispatcher,
	m *metrics.Metrics,
	logger *zap.Logger,
	batchSize int,
) EscalationService {
	return &escalationService{
		repo:       repo,
		scorer:     scorer,
		dispatcher: dispatcher,
		metrics:    m,
		logger:     logger.Named("escalation"),
		batchSize:  batchSize,
	}
}

func (s *escalationService) Sweep(ctx context.Context, now time.Time) (*dto.SweepResponse, error) {
	started := time.Now()
	overdue, err := s.repo.Complaint.ListOverdue(ctx, now, s.batchSize)
	if err != nil {
		s.logger.Error("list overdue complaints failed", zap.Error(err))
		return nil, err
	}

	result := &dto.SweepResponse{Scanned: len(overdue)}
	for i := range overdue {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("sweep interrupted", zap.Int("remaining", len(overdue)-i), zap.Error(err))
			s.finish(result, started)
			return result, err
		}
		r := s.escalate(ctx, &overdue[i], now)
		switch r.Outcome {
		case outcomeEscalated:
			result.Escalated++
		case outcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		result.Results = append(result.Results, r.EscalationResult)
	}

	s.finish(result, started)
	return result, nil
}

func (s *escalationService) finish(result *dto.SweepResponse, started time.Time) {
	took := time.Since(started)
	s.metrics.SweepFinished(result.Escalated, result.Skipped, result.Failed, took)
	if result.Scanned > 0 {
		s.logger.Info("escalation sweep finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("escalated", result.Escalated),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed),
			zap.Duration("took", took))
	}
}

func (s *escalationService) EscalateOne(ctx context.Context, id string, now time.Time) (*dto.EscalationResult, error) {
	c, err := s.repo.Complaint.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	if !c.Status.Escalatable() {
		return nil, fmt.Errorf("complaint is %s: %w", c.Status, ErrInvalidTransition)
	}
	if c.EscalationLevel >= model.MaxEscalationLevel {
		return nil, ErrMaxEscalation
	}

	r := s.escalate(ctx, c, now)
	switch r.Outcome {
	case outcomeEscalated:
		return &r.EscalationResult, nil
	case outcomeSkipped:
		return nil, fmt.Errorf("%s: %w", r.Reason, pkgerrors.ErrNoEligibleStaff)
	}
	return nil, r.err
}

// escalation carries the error behind a failed outcome back to EscalateOne
type escalation struct {
	dto.EscalationResult
	err error
}

// escalate moves one complaint up a level. Everything the move touches commits
// in one transaction guarded by the complaint's status and version, so a
// concurrent sweep or a racing status update makes exactly one side win.
func (s *escalationService) escalate(ctx context.Context, c *model.Complaint, now time.Time) *escalation {
	r := &escalation{EscalationResult: dto.EscalationResult{
		ComplaintID: c.ComplaintID,
		TicketCode:  c.TicketCode,
		FromLevel:   c.EscalationLevel,
	}}
	log := s.logger.With(zap.String("ticket", c.TicketCode), zap.Int("level", c.EscalationLevel))

	next := c.EscalationLevel + 1
	rank, ok := model.RankForLevel(next)
	if !ok {
		r.Outcome, r.Reason = outcomeSkipped, "highest escalation level reached"
		return r
	}

	var outgoing, incoming *model.StaffMember
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		q := repository.CandidateQuery{Department: c.Category, Rank: rank, CollegeID: c.CollegeID}
		if c.AssignedToID != nil {
			q.ExcludeID = *c.AssignedToID
		}
		target, err := tx.Staff.FindLeastLoaded(ctx, q)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.ErrNoEligibleStaff
			}
			return err
		}
		incoming = target

		title := target.Title()
		if path := c.EscalationPath; len(path) >= next {
			title = path[next-1]
		}
		// the new owner gets a full SLA window once they pick it up
		if err := tx.Complaint.CompareAndUpdate(ctx, c.ComplaintID, c.Status, c.Version, map[string]interface{}{
			"status":           model.StatusEscalated,
			"escalation_level": next,
			"assigned_to_id":   target.StaffID,
			"assigned_to_name": target.Name,
			"due_date":         now.Add(c.Priority.SLA()),
		}); err != nil {
			return err
		}
		targetID := target.StaffID
		if err := tx.Complaint.AppendUpdate(ctx, &model.ComplaintUpdate{
			ComplaintID:    c.ComplaintID,
			Status:         model.StatusEscalated,
			AssignedToID:   &targetID,
			AssignedToName: target.Name,
			Note:           fmt.Sprintf("SLA breach, level %d: reassigned to %s (%s)", next, target.Name, title),
			ActorRole:      model.ActorSystem,
		}); err != nil {
			return err
		}

		if c.AssignedToID != nil {
			prev, err := tx.Staff.GetByID(ctx, *c.AssignedToID)
			switch {
			case err == nil:
				outgoing = prev
				if err := tx.Staff.ApplyEscalationOut(ctx, prev.StaffID); err != nil {
					return err
				}
				if err := s.scorer.Recompute(ctx, tx, prev.StaffID); err != nil {
					return err
				}
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}

		if err := tx.Staff.ApplyAssignment(ctx, target.StaffID, now); err != nil {
			return err
		}
		return s.scorer.Recompute(ctx, tx, target.StaffID)
	})

	switch {
	case err == nil:
	case errors.Is(err, pkgerrors.ErrNoEligibleStaff):
		log.Warn("no staff at next level, complaint left as is", zap.String("rank", rank.String()))
		r.Outcome, r.Reason = outcomeSkipped, fmt.Sprintf("no active %s in %s", rank, c.Category)
		return r
	case errors.Is(err, pkgerrors.ErrConflict):
		log.Info("complaint changed during escalation, skipped")
		r.Outcome, r.Reason, r.err = outcomeFailed, "complaint was modified concurrently", err
		return r
	default:
		log.Error("escalation failed", zap.Error(err))
		r.Outcome, r.Reason, r.err = outcomeFailed, err.Error(), err
		return r
	}

	r.Outcome = outcomeEscalated
	r.ToLevel = next
	r.AssignedTo = incoming.Name
	s.metrics.Escalated(strconv.Itoa(next))
	s.metrics.Transition(string(c.Status), string(model.StatusEscalated))
	log.Info("complaint escalated", zap.Int("to_level", next), zap.String("assigned_to", incoming.StaffID))

	fromName := ""
	if outgoing != nil {
		fromName = outgoing.Name
	}
	c.Status = model.StatusEscalated
	c.EscalationLevel = next
	c.AssignedToID = &incoming.StaffID
	c.AssignedToName = incoming.Name
	c.DueDate = now.Add(c.Priority.SLA())
	c.Version++

	s.dispatcher.Notify(ctx, escalatedMessage(c, staffRecipient(incoming), fromName, incoming.Name))
	if outgoing != nil {
		s.dispatcher.Notify(ctx, escalatedMessage(c, staffRecipient(outgoing), fromName, incoming.Name))
	}
	s.dispatcher.Notify(ctx, escalatedMessage(c, studentRecipient(c), fromName, incoming.Name))
	return r
}
