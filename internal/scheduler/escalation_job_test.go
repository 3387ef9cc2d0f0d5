package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"solveit/config"
	"solveit/internal/dto"
	"solveit/pkg/redis"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	block bool
	ran   chan struct{}
}

func newFakeSweeper() *fakeSweeper {
	return &fakeSweeper{ran: make(chan struct{}, 8)}
}

func (f *fakeSweeper) Sweep(ctx context.Context, now time.Time) (*dto.SweepResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, now)
	block := f.block
	f.mu.Unlock()
	f.ran <- struct{}{}
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &dto.SweepResponse{Scanned: 1, Escalated: 1}, nil
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLocker struct {
	err      error
	acquired int
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func testConfig() config.EscalationConfig {
	return config.EscalationConfig{Enabled: true, Schedule: "@hourly", BatchSize: 10, LockTTL: time.Minute}
}

func TestNewEscalationJob_BadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule = "every hour"
	_, err := NewEscalationJob(cfg, newFakeSweeper(), nil, zap.NewNop())
	assert.Error(t, err)
}

func TestRunOnce_Sweeps(t *testing.T) {
	sweeper := newFakeSweeper()
	locker := &fakeLocker{}
	job, err := NewEscalationJob(testConfig(), sweeper, locker, zap.NewNop())
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	res, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Escalated)
	assert.Equal(t, []time.Time{fixed}, sweeper.calls)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)
	require.NoError(t, job.Stop(context.Background()))
}

func TestRunOnce_SkipsWhenLockHeld(t *testing.T) {
	sweeper := newFakeSweeper()
	job, err := NewEscalationJob(testConfig(), sweeper, &fakeLocker{err: redis.ErrLockHeld}, zap.NewNop())
	require.NoError(t, err)

	_, err = job.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweepSkipped)
	assert.Zero(t, sweeper.count())
	require.NoError(t, job.Stop(context.Background()))
}

func TestRunOnce_SweepsWhenLockBackendDown(t *testing.T) {
	sweeper := newFakeSweeper()
	job, err := NewEscalationJob(testConfig(), sweeper, &fakeLocker{err: errors.New("dial tcp: connection refused")}, zap.NewNop())
	require.NoError(t, err)

	_, err = job.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, sweeper.count())
	require.NoError(t, job.Stop(context.Background()))
}

func TestRunOnce_Timeout(t *testing.T) {
	sweeper := newFakeSweeper()
	sweeper.block = true
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	job, err := NewEscalationJob(cfg, sweeper, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = job.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NoError(t, job.Stop(context.Background()))
}

func TestEscalationJob_TicksAndStops(t *testing.T) {
	sweeper := newFakeSweeper()
	cfg := testConfig()
	cfg.Schedule = "@every 1s"
	job, err := NewEscalationJob(cfg, sweeper, nil, zap.NewNop())
	require.NoError(t, err)

	job.Start()
	select {
	case <-sweeper.ran:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep never ran")
	}
	require.NoError(t, job.Stop(context.Background()))
	assert.NoError(t, job.Stop(context.Background()), "second stop is a no-op")
}

func TestEscalationJob_StopCancelsRunningSweep(t *testing.T) {
	sweeper := newFakeSweeper()
	sweeper.block = true
	cfg := testConfig()
	cfg.Schedule = "@every 1s"
	job, err := NewEscalationJob(cfg, sweeper, nil, zap.NewNop())
	require.NoError(t, err)

	job.Start()
	select {
	case <-sweeper.ran:
	case <-time.After(3 * time.Second):
		t.Fatal("sweep never ran")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, job.Stop(ctx), context.DeadlineExceeded)
}
