//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "solveit/pkg/errors"

	"solveit/internal/model"
	"solveit/internal/repository"
)

// These run against a real PostgreSQL so row locking and concurrent
// conditional updates behave as in production:
//
//	TEST_DATABASE_DSN=... go test -tags integration ./internal/repository/

var pgDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=solveit password=solveit_password dbname=solveit_test sslmode=disable TimeZone=UTC"
	}

	var err error
	pgDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to test database: %v\n", err)
		os.Exit(1)
	}

	err = pgDB.AutoMigrate(
		&model.User{},
		&model.StaffMember{},
		&model.Complaint{},
		&model.ComplaintUpdate{},
		&model.Notification{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func pgStaff(t *testing.T) *model.StaffMember {
	t.Helper()
	s := &model.StaffMember{
		Name:       "Load Tester",
		Email:      fmt.Sprintf("load%d@college.edu", time.Now().UnixNano()),
		Department: model.CategoryIT,
		Rank:       model.RankAssistant,
		IsActive:   true,
	}
	if err := pgDB.Create(s).Error; err != nil {
		t.Fatalf("create staff: %v", err)
	}
	t.Cleanup(func() { pgDB.Where("staff_id = ?", s.StaffID).Delete(&model.StaffMember{}) })
	return s
}

// ═══════════════════════════════════════════════════════════
// Test: Concurrent counters
// ═══════════════════════════════════════════════════════════

func TestPG_ConcurrentAssignmentsNeverLoseIncrements(t *testing.T) {
	repo := repository.NewRepository(pgDB)
	s := pgStaff(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Transaction(ctx, func(tx *repository.Repository) error {
				return tx.Staff.ApplyAssignment(ctx, s.StaffID, time.Now())
			})
		}()
	}
	wg.Wait()

	got, err := repo.Staff.GetByID(ctx, s.StaffID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.AssignedComplaints != n || got.CurrentWorkload != n {
		t.Errorf("expected %d/%d, got assigned=%d workload=%d", n, n, got.AssignedComplaints, got.CurrentWorkload)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Concurrent transitions
// ═══════════════════════════════════════════════════════════

func TestPG_ConcurrentTransitionsExactlyOneWins(t *testing.T) {
	repo := repository.NewRepository(pgDB)
	ctx := context.Background()

	c := &model.Complaint{
		Title: "Wi-Fi down", Description: "Lab 3 has no connectivity", Category: model.CategoryIT,
		Priority: model.PriorityUrgent, Status: model.StatusInProgress, DueDate: time.Now().Add(time.Hour),
		StudentID: "3f6c1a9e-0000-4000-8000-000000000001", StudentName: "Asha", StudentEmail: "asha@college.edu",
	}
	if err := repo.Complaint.Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() {
		pgDB.Where("complaint_id = ?", c.ComplaintID).Delete(&model.ComplaintUpdate{})
		pgDB.Where("complaint_id = ?", c.ComplaintID).Delete(&model.Complaint{})
	})

	var wins, conflicts int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Transaction(ctx, func(tx *repository.Repository) error {
				if err := tx.Complaint.CompareAndUpdate(ctx, c.ComplaintID, model.StatusInProgress, c.Version,
					map[string]interface{}{"status": model.StatusResolved}); err != nil {
					return err
				}
				return tx.Complaint.AppendUpdate(ctx, &model.ComplaintUpdate{
					ComplaintID: c.ComplaintID, Status: model.StatusResolved, ActorRole: "staff",
				})
			})
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case err == pkgerrors.ErrOptimisticLock:
				atomic.AddInt32(&conflicts, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflicts != 7 {
		t.Errorf("expected 1 win and 7 conflicts, got %d/%d", wins, conflicts)
	}

	history, err := repo.Complaint.ListUpdates(ctx, c.ComplaintID)
	if err != nil {
		t.Fatalf("ListUpdates: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected exactly one history entry, got %d", len(history))
	}
}
