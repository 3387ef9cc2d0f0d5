package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"solveit/internal/model"
	pkgerrors "solveit/pkg/errors"
)

// ticketRetries attempts at claiming the next ticket sequence before giving up
const ticketRetries = 3

// ComplaintFilter list filters; zero values are ignored
type ComplaintFilter struct {
	StudentID    string
	AssignedToID string
	CollegeID    string
	Status       model.Status
	Category     model.Category
	Priority     model.Priority
	// OverdueAt keeps only in-flight complaints due before this instant
	OverdueAt *time.Time
	Offset    int
	Limit     int
}

// ComplaintRepository complaint data access
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *model.Complaint) error
	GetByID(ctx context.Context, id string) (*model.Complaint, error)
	GetByTicketCode(ctx context.Context, code string) (*model.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, int64, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]model.Complaint, error)
	ListOpenByAssignee(ctx context.Context, staffID string) ([]model.Complaint, error)
	// CompareAndUpdate applies changes only while the row still has the expected
	// status and version, bumping the version. A lost race yields ErrOptimisticLock.
	CompareAndUpdate(ctx context.Context, id string, status model.Status, version int, changes map[string]interface{}) error
	AppendUpdate(ctx context.Context, update *model.ComplaintUpdate) error
	ListUpdates(ctx context.Context, complaintID string) ([]model.ComplaintUpdate, error)
}

type complaintRepo struct {
	db *gorm.DB
}

// NewComplaintRepo creates a ComplaintRepository
func NewComplaintRepo(db *gorm.DB) ComplaintRepository {
	return &complaintRepo{db: db}
}

// Create claims the next ticket sequence and inserts the complaint.
// Each attempt runs in its own savepoint so a duplicate sequence from a
// concurrent submission can be retried inside an outer transaction.
func (r *complaintRepo) Create(ctx context.Context, complaint *model.Complaint) error {
	var err error
	for attempt := 0; attempt < ticketRetries; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var last int
			if err := tx.Model(&model.Complaint{}).
				Select("COALESCE(MAX(ticket_seq), 0)").
				Scan(&last).Error; err != nil {
				return err
			}
			complaint.TicketSeq = last + 1
			complaint.TicketCode = model.TicketCodeFor(complaint.TicketSeq)
			return tx.Create(complaint).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		complaint.ComplaintID = ""
	}
	return err
}

func (r *complaintRepo) GetByID(ctx context.Context, id string) (*model.Complaint, error) {
	var complaint model.Complaint
	err := r.db.WithContext(ctx).
		Preload("Updates", orderBySeq).
		Where("complaint_id = ?", id).
		First(&complaint).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepo) GetByTicketCode(ctx context.Context, code string) (*model.Complaint, error) {
	var complaint model.Complaint
	err := r.db.WithContext(ctx).
		Preload("Updates", orderBySeq).
		Where("ticket_code = ?", code).
		First(&complaint).Error
	if err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepo) List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, int64, error) {
	var complaints []model.Complaint
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Complaint{})

	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.AssignedToID != "" {
		db = db.Where("assigned_to_id = ?", filter.AssignedToID)
	}
	if filter.CollegeID != "" {
		db = db.Where("college_id = ?", filter.CollegeID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.Priority != "" {
		db = db.Where("priority = ?", filter.Priority)
	}
	if filter.OverdueAt != nil {
		db = db.Where("status IN ? AND due_date < ?", model.InFlightStatuses, *filter.OverdueAt)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Order("created_at DESC").Order("ticket_seq DESC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := q.Find(&complaints).Error; err != nil {
		return nil, 0, err
	}

	return complaints, total, nil
}

// ListOverdue assigned or in-progress complaints past their due date that can still climb a level,
// oldest deadline first
func (r *complaintRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]model.Complaint, error) {
	var complaints []model.Complaint
	q := r.db.WithContext(ctx).
		Where("status IN ? AND due_date < ? AND escalation_level < ?",
			model.EscalatableStatuses, now, model.MaxEscalationLevel).
		Order("due_date ASC").
		Order("ticket_seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *complaintRepo) ListOpenByAssignee(ctx context.Context, staffID string) ([]model.Complaint, error) {
	var complaints []model.Complaint
	err := r.db.WithContext(ctx).
		Where("assigned_to_id = ? AND status IN ?", staffID, model.InFlightStatuses).
		Order("due_date ASC").
		Find(&complaints).Error
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *complaintRepo) CompareAndUpdate(ctx context.Context, id string, status model.Status, version int, changes map[string]interface{}) error {
	updates := make(map[string]interface{}, len(changes)+1)
	for k, v := range changes {
		updates[k] = v
	}
	updates["version"] = version + 1

	result := r.db.WithContext(ctx).
		Model(&model.Complaint{}).
		Where("complaint_id = ? AND status = ? AND version = ?", id, status, version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// AppendUpdate assigns the next per-complaint sequence number and inserts the entry.
// The unique (complaint_id, seq) index rejects a racing duplicate.
func (r *complaintRepo) AppendUpdate(ctx context.Context, update *model.ComplaintUpdate) error {
	var last int
	if err := r.db.WithContext(ctx).
		Model(&model.ComplaintUpdate{}).
		Where("complaint_id = ?", update.ComplaintID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error; err != nil {
		return err
	}
	update.Seq = last + 1
	if err := r.db.WithContext(ctx).Create(update).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgerrors.ErrOptimisticLock
		}
		return err
	}
	return nil
}

func (r *complaintRepo) ListUpdates(ctx context.Context, complaintID string) ([]model.ComplaintUpdate, error) {
	var updates []model.ComplaintUpdate
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("seq ASC").
		Find(&updates).Error
	if err != nil {
		return nil, err
	}
	return updates, nil
}

func orderBySeq(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}
