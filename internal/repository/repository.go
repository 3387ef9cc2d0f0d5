package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregate entry point for all repositories
type Repository struct {
	db *gorm.DB

	Complaint    ComplaintRepository
	Staff        StaffRepository
	User         UserRepository
	Notification NotificationRepository
}

// NewRepository creates the Repository aggregate
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Complaint:    NewComplaintRepo(db),
		Staff:        NewStaffRepo(db),
		User:         NewUserRepo(db),
		Notification: NewNotificationRepo(db),
	}
}

// DB underlying connection; nil for aggregates assembled from fakes
func (r *Repository) DB() *gorm.DB { return r.db }

// Transaction runs fn against an aggregate bound to a single database transaction.
// fn's error rolls everything back. An aggregate without a connection runs fn
// directly against itself.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
