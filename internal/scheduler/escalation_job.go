package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"solveit/config"
	"solveit/internal/dto"
	"solveit/pkg/redis"
)

// lockName cluster-wide mutex guarding the sweep
const lockName = "escalation-sweep"

// ErrSweepSkipped another instance holds the sweep lock
var ErrSweepSkipped = errors.New("escalation sweep skipped: another instance is running it")

// Sweeper runs one escalation pass
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (*dto.SweepResponse, error)
}

// Locker cross-instance mutual exclusion
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, err error)
}

type redisLocker struct{ client *redis.Client }

// RedisLocker adapts the Redis client; a nil client yields a nil Locker
func RedisLocker(client *redis.Client) Locker {
	if client == nil {
		return nil
	}
	return redisLocker{client: client}
}

func (l redisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.AcquireLock(ctx, name, ttl)
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// EscalationJob runs the SLA sweep on a cron schedule. Overlapping ticks are
// skipped, and with a Locker only one instance sweeps per tick.
type EscalationJob struct {
	cfg     config.EscalationConfig
	sweeper Sweeper
	locker  Locker
	logger  *zap.Logger
	cron    *cron.Cron
	now     func() time.Time

	// base is cancelled when Stop gives up waiting
	base   context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewEscalationJob parses the schedule and registers the sweep. locker may be nil.
func NewEscalationJob(cfg config.EscalationConfig, sweeper Sweeper, locker Locker, logger *zap.Logger) (*EscalationJob, error) {
	logger = logger.Named("scheduler")
	cl := cronLogger{logger.Sugar()}
	base, cancel := context.WithCancel(context.Background())
	j := &EscalationJob{
		cfg:     cfg,
		sweeper: sweeper,
		locker:  locker,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		base:    base,
		cancel:  cancel,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	if _, err := j.cron.AddFunc(cfg.Schedule, j.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("escalation schedule %q: %w", cfg.Schedule, err)
	}
	return j, nil
}

// Start begins ticking in the background
func (j *EscalationJob) Start() {
	j.cron.Start()
	j.logger.Info("escalation job started", zap.String("schedule", j.cfg.Schedule))
}

// Stop halts the schedule and waits for a running sweep to finish. If ctx
// expires first the sweep is cancelled and ctx's error returned.
func (j *EscalationJob) Stop(ctx context.Context) error {
	var err error
	j.once.Do(func() {
		done := j.cron.Stop().Done()
		select {
		case <-done:
		case <-ctx.Done():
			j.cancel()
			<-done
			err = ctx.Err()
		}
		j.cancel()
		j.logger.Info("escalation job stopped")
	})
	return err
}

func (j *EscalationJob) tick() {
	res, err := j.RunOnce(j.base)
	switch {
	case errors.Is(err, ErrSweepSkipped):
		j.logger.Debug("sweep lock held elsewhere, tick skipped")
	case err != nil:
		j.logger.Error("escalation sweep failed", zap.Error(err))
	case res.Failed > 0:
		j.logger.Warn("escalation sweep finished with failures",
			zap.Int("failed", res.Failed), zap.Int("escalated", res.Escalated))
	}
}

// RunOnce performs a single sweep under the lock and the configured timeout
func (j *EscalationJob) RunOnce(ctx context.Context) (*dto.SweepResponse, error) {
	if j.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.cfg.Timeout)
		defer cancel()
	}

	if j.locker != nil {
		release, err := j.locker.Acquire(ctx, lockName, j.lockTTL())
		switch {
		case errors.Is(err, redis.ErrLockHeld):
			return nil, ErrSweepSkipped
		case err != nil:
			// the per-complaint compare-and-swap still prevents double escalation
			j.logger.Warn("sweep lock unavailable, sweeping without it", zap.Error(err))
		default:
			defer func() {
				rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := release(rctx); err != nil {
					j.logger.Warn("release sweep lock failed", zap.Error(err))
				}
			}()
		}
	}

	return j.sweeper.Sweep(ctx, j.now())
}

func (j *EscalationJob) lockTTL() time.Duration {
	if j.cfg.LockTTL > 0 {
		return j.cfg.LockTTL
	}
	return 10 * time.Minute
}

// cronLogger routes cron's logging into zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
