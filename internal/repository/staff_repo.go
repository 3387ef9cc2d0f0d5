package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"solveit/internal/model"
	pkgerrors "solveit/pkg/errors"
)

// StaffFilter directory list filters
type StaffFilter struct {
	Department model.Category
	CollegeID  string
	Rank       *model.Rank
	Active     *bool
	Offset     int
	Limit      int
}

// CandidateQuery selects the staff member who should take a complaint
type CandidateQuery struct {
	Department model.Category
	Rank       model.Rank
	// CollegeID restricts candidates to that college plus staff shared by
	// every college (empty college_id). Empty matches everyone.
	CollegeID string
	// ExcludeID skips one staff member, typically the current assignee
	ExcludeID string
}

// StaffRepository staff directory data access.
// Workload counters only change through the Apply* methods, which use
// in-database arithmetic so concurrent writers never lose an increment.
type StaffRepository interface {
	Create(ctx context.Context, staff *model.StaffMember) error
	GetByID(ctx context.Context, id string) (*model.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*model.StaffMember, error)
	GetByUserID(ctx context.Context, userID string) (*model.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]model.StaffMember, int64, error)
	ListIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, staff *model.StaffMember) error
	SetActive(ctx context.Context, id string, active bool) error
	Leaderboard(ctx context.Context, department model.Category, limit int) ([]model.StaffMember, error)

	FindLeastLoaded(ctx context.Context, q CandidateQuery) (*model.StaffMember, error)
	ApplyAssignment(ctx context.Context, id string, at time.Time) error
	ApplyResolution(ctx context.Context, id string) error
	ApplyRelease(ctx context.Context, id string) error
	ApplyEscalationOut(ctx context.Context, id string) error
	ApplyRating(ctx context.Context, id string, rating int) error
	UpdatePerformance(ctx context.Context, id string, score int) error
}

type staffRepo struct {
	db *gorm.DB
}

// NewStaffRepo creates a StaffRepository
func NewStaffRepo(db *gorm.DB) StaffRepository {
	return &staffRepo{db: db}
}

// decrementWorkload never lets the workload go below zero
var decrementWorkload = gorm.Expr("CASE WHEN current_workload > 0 THEN current_workload - 1 ELSE 0 END")

func (r *staffRepo) Create(ctx context.Context, staff *model.StaffMember) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *staffRepo) GetByID(ctx context.Context, id string) (*model.StaffMember, error) {
	var staff model.StaffMember
	if err := r.db.WithContext(ctx).Where("staff_id = ?", id).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepo) GetByEmail(ctx context.Context, email string) (*model.StaffMember, error) {
	var staff model.StaffMember
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepo) GetByUserID(ctx context.Context, userID string) (*model.StaffMember, error) {
	var staff model.StaffMember
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepo) List(ctx context.Context, filter StaffFilter) ([]model.StaffMember, int64, error) {
	var members []model.StaffMember
	var total int64

	db := r.db.WithContext(ctx).Model(&model.StaffMember{})
	if filter.Department != "" {
		db = db.Where("department = ?", filter.Department)
	}
	if filter.CollegeID != "" {
		db = db.Where("college_id = ?", filter.CollegeID)
	}
	if filter.Rank != nil {
		db = db.Where("staff_rank = ?", *filter.Rank)
	}
	if filter.Active != nil {
		db = db.Where("is_active = ?", *filter.Active)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Order("department ASC").Order("staff_rank DESC").Order("name ASC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := q.Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *staffRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.StaffMember{}).
		Order("created_at ASC").
		Pluck("staff_id", &ids).Error
	return ids, err
}

// Update writes profile fields under the optimistic lock; counters are untouched
func (r *staffRepo) Update(ctx context.Context, staff *model.StaffMember) error {
	oldVersion := staff.Version
	result := r.db.WithContext(ctx).
		Model(&model.StaffMember{}).
		Where("staff_id = ? AND version = ?", staff.StaffID, oldVersion).
		Updates(map[string]interface{}{
			"name":       staff.Name,
			"email":      staff.Email,
			"phone":      staff.Phone,
			"department": staff.Department,
			"staff_rank": staff.Rank,
			"college_id": staff.CollegeID,
			"updated_by": staff.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	staff.Version = oldVersion + 1
	return nil
}

func (r *staffRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.apply(ctx, id, map[string]interface{}{"is_active": active})
}

func (r *staffRepo) Leaderboard(ctx context.Context, department model.Category, limit int) ([]model.StaffMember, error) {
	var members []model.StaffMember
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if department != "" {
		q = q.Where("department = ?", department)
	}
	q = q.Order("performance_score DESC").
		Order("resolved_complaints DESC").
		Order("name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// FindLeastLoaded lowest workload first, then the longest idle (never assigned
// before anyone else), then the earliest registered.
func (r *staffRepo) FindLeastLoaded(ctx context.Context, cq CandidateQuery) (*model.StaffMember, error) {
	q := r.db.WithContext(ctx).
		Where("department = ? AND staff_rank = ? AND is_active = ?", cq.Department, cq.Rank, true)
	if cq.CollegeID != "" {
		q = q.Where("(college_id = ? OR college_id = '')", cq.CollegeID)
	}
	if cq.ExcludeID != "" {
		q = q.Where("staff_id <> ?", cq.ExcludeID)
	}

	var staff model.StaffMember
	err := q.Order("current_workload ASC").
		Order("last_assigned_at ASC NULLS FIRST").
		Order("created_at ASC").
		Order("staff_id ASC").
		Limit(1).
		Take(&staff).Error
	if err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepo) ApplyAssignment(ctx context.Context, id string, at time.Time) error {
	return r.apply(ctx, id, map[string]interface{}{
		"assigned_complaints": gorm.Expr("assigned_complaints + 1"),
		"current_workload":    gorm.Expr("current_workload + 1"),
		"last_assigned_at":    at,
	})
}

func (r *staffRepo) ApplyResolution(ctx context.Context, id string) error {
	return r.apply(ctx, id, map[string]interface{}{
		"resolved_complaints": gorm.Expr("resolved_complaints + 1"),
		"current_workload":    decrementWorkload,
	})
}

func (r *staffRepo) ApplyRelease(ctx context.Context, id string) error {
	return r.apply(ctx, id, map[string]interface{}{
		"current_workload": decrementWorkload,
	})
}

func (r *staffRepo) ApplyEscalationOut(ctx context.Context, id string) error {
	return r.apply(ctx, id, map[string]interface{}{
		"escalated_complaints": gorm.Expr("escalated_complaints + 1"),
		"current_workload":     decrementWorkload,
	})
}

// ApplyRating folds one rating into the running average
func (r *staffRepo) ApplyRating(ctx context.Context, id string, rating int) error {
	return r.apply(ctx, id, map[string]interface{}{
		"average_rating": gorm.Expr("(average_rating * rating_count + ?) / (rating_count + 1)", rating),
		"rating_count":   gorm.Expr("rating_count + 1"),
	})
}

func (r *staffRepo) UpdatePerformance(ctx context.Context, id string, score int) error {
	return r.apply(ctx, id, map[string]interface{}{"performance_score": score})
}

func (r *staffRepo) apply(ctx context.Context, id string, changes map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.StaffMember{}).
		Where("staff_id = ?", id).
		Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
