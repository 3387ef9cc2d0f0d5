package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"solveit/internal/model"
	"solveit/internal/repository"
	pkgerrors "solveit/pkg/errors"
)

// AssignmentResolver routes new complaints to a frontline staff member and
// stamps their deadline
type AssignmentResolver struct {
	scorer *PerformanceScorer
}

// NewAssignmentResolver creates an AssignmentResolver
func NewAssignmentResolver(scorer *PerformanceScorer) *AssignmentResolver {
	return &AssignmentResolver{scorer: scorer}
}

// ResolveDepartment the department owning a category; unknown categories go to the default
func (r *AssignmentResolver) ResolveDepartment(category string) model.Category {
	return model.ResolveCategory(category)
}

// DueDate an override in the future wins; otherwise now plus the priority's SLA
func (r *AssignmentResolver) DueDate(p model.Priority, now time.Time, override *time.Time) time.Time {
	if override != nil && override.After(now) {
		return override.UTC()
	}
	return now.Add(p.SLA())
}

// Assign hands a pending complaint to the least-loaded active Assistant of its
// department. repo must be bound to the caller's transaction: the complaint
// update, its history entry and the counter increments commit together.
// The complaint is updated in place on success.
func (r *AssignmentResolver) Assign(ctx context.Context, repo *repository.Repository, c *model.Complaint, now time.Time) (*model.StaffMember, error) {
	staff, err := repo.Staff.FindLeastLoaded(ctx, repository.CandidateQuery{
		Department: c.Category,
		Rank:       model.RankAssistant,
		CollegeID:  c.CollegeID,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", c.Category, pkgerrors.ErrNoEligibleStaff)
		}
		return nil, err
	}

	if err := repo.Complaint.CompareAndUpdate(ctx, c.ComplaintID, model.StatusPending, c.Version, map[string]interface{}{
		"status":           model.StatusAssigned,
		"assigned_to_id":   staff.StaffID,
		"assigned_to_name": staff.Name,
	}); err != nil {
		return nil, err
	}

	staffID := staff.StaffID
	if err := repo.Complaint.AppendUpdate(ctx, &model.ComplaintUpdate{
		ComplaintID:    c.ComplaintID,
		Status:         model.StatusAssigned,
		AssignedToID:   &staffID,
		AssignedToName: staff.Name,
		Note:           fmt.Sprintf("Assigned to %s (%s)", staff.Name, staff.Title()),
		ActorRole:      model.ActorSystem,
	}); err != nil {
		return nil, err
	}

	if err := repo.Staff.ApplyAssignment(ctx, staff.StaffID, now); err != nil {
		return nil, err
	}
	if err := r.scorer.Recompute(ctx, repo, staff.StaffID); err != nil {
		return nil, err
	}

	c.Status = model.StatusAssigned
	c.AssignedToID = &staffID
	c.AssignedToName = staff.Name
	c.Version++
	return staff, nil
}
