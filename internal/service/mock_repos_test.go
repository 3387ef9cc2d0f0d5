package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"solveit/internal/model"
	"solveit/internal/notify"
	"solveit/internal/repository"
)

// ── test database ──

func newTestRepo(t *testing.T) *repository.Repository {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.StaffMember{},
		&model.Complaint{},
		&model.ComplaintUpdate{},
		&model.Notification{},
	))
	return repository.NewRepository(db)
}

// ── recording dispatcher ──

type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (d *recordingDispatcher) Notify(_ context.Context, msg notify.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
}

func (d *recordingDispatcher) byKind(kind model.NotificationKind) []notify.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notify.Message
	for _, m := range d.msgs {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = nil
}

// ── in-memory blacklist ──

type memBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemBlacklist() *memBlacklist {
	return &memBlacklist{revoked: make(map[string]time.Duration)}
}

func (b *memBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = ttl
	return nil
}

func (b *memBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.revoked[jti]
	return ok, nil
}

// ── service fixture ──

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	repo       *repository.Repository
	dispatcher *recordingDispatcher
	scorer     *PerformanceScorer
	complaints *complaintService
	escalation EscalationService
	now        time.Time
	staffSeq   int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newTestRepo(t)
	logger := zap.NewNop()
	env := &testEnv{
		repo:       repo,
		dispatcher: &recordingDispatcher{},
		now:        t0,
	}
	env.scorer = NewPerformanceScorer(repo, logger)
	cs := NewComplaintService(repo, NewAssignmentResolver(env.scorer), env.scorer, env.dispatcher, nil, logger).(*complaintService)
	cs.now = func() time.Time { return env.now }
	env.complaints = cs
	env.escalation = NewEscalationService(repo, env.scorer, env.dispatcher, nil, logger, 100)
	return env
}

func (e *testEnv) addStaff(t *testing.T, name string, dept model.Category, rank model.Rank) *model.StaffMember {
	t.Helper()
	userID := uuid.NewString()
	s := &model.StaffMember{
		UserID:     &userID,
		Name:       name,
		Email:      strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@college.edu",
		Department: dept,
		Rank:       rank,
		IsActive:   true,
	}
	// distinct creation times keep the insertion-order tie-break deterministic
	e.staffSeq++
	s.CreatedAt = t0.Add(-24*time.Hour + time.Duration(e.staffSeq)*time.Minute)
	s.UpdatedAt = s.CreatedAt
	require.NoError(t, e.repo.Staff.Create(context.Background(), s))
	return s
}

func (e *testEnv) staff(t *testing.T, id string) *model.StaffMember {
	t.Helper()
	s, err := e.repo.Staff.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (e *testEnv) complaint(t *testing.T, id string) *model.Complaint {
	t.Helper()
	c, err := e.repo.Complaint.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func newStudent(name string) Actor {
	return Actor{
		UserID: uuid.NewString(),
		Role:   model.RoleStudent,
		Name:   name,
		Email:  strings.ToLower(name) + "@student.college.edu",
		Phone:  "+91 98450 00000",
	}
}

func staffActor(s *model.StaffMember) Actor {
	a := Actor{Role: model.RoleStaff, Name: s.Name, Email: s.Email, StaffID: s.StaffID}
	if s.UserID != nil {
		a.UserID = *s.UserID
	}
	return a
}

var adminActor = Actor{UserID: "9b2f6e4c-0000-4000-8000-00000000a001", Role: model.RoleAdmin, Name: "Admin"}
