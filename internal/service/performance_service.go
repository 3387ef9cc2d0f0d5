package service

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"solveit/internal/repository"
)

// escalationPenalty points deducted per complaint escalated away from a staff member
const escalationPenalty = 10

// Score performance score on a 0..100 scale from lifetime counters:
// resolution rate in percent minus a fixed penalty per escalation.
func Score(assigned, resolved, escalated int) int {
	denom := assigned
	if denom < 1 {
		denom = 1
	}
	raw := float64(resolved)/float64(denom)*100 - float64(escalated*escalationPenalty)
	score := int(math.Round(raw))
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// PerformanceScorer keeps staff_members.performance_score in step with the counters
type PerformanceScorer struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPerformanceScorer creates a PerformanceScorer
func NewPerformanceScorer(repo *repository.Repository, logger *zap.Logger) *PerformanceScorer {
	return &PerformanceScorer{repo: repo, logger: logger}
}

// Recompute re-derives one staff member's score. Pass the transaction-bound
// aggregate so the read sees the counters just written; nil uses the default.
// Unknown staff ids are ignored.
func (p *PerformanceScorer) Recompute(ctx context.Context, repo *repository.Repository, staffID string) error {
	if repo == nil {
		repo = p.repo
	}
	staff, err := repo.Staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	score := Score(staff.AssignedComplaints, staff.ResolvedComplaints, staff.EscalatedComplaints)
	if score == staff.PerformanceScore {
		return nil
	}
	return repo.Staff.UpdatePerformance(ctx, staffID, score)
}

// RecomputeAll walks the whole directory; failures are logged and counted, not fatal
func (p *PerformanceScorer) RecomputeAll(ctx context.Context) (processed int, failed int, err error) {
	ids, err := p.repo.Staff.ListIDs(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return processed, failed, err
		}
		if err := p.Recompute(ctx, nil, id); err != nil {
			failed++
			p.logger.Error("recompute performance score failed", zap.String("staff_id", id), zap.Error(err))
			continue
		}
		processed++
	}
	return processed, failed, nil
}
