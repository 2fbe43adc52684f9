package scheduler

import (
	"context"
	"fmt"
	"time"

	obsmetrics "github.com/smallbiznis/garagedesk/internal/observability/metrics"
	"go.uber.org/zap"
)

const jobLockKey = "garagedesk:scheduler:%s"

// JobLocker hands out a lease so only one instance runs a job at a time.
type JobLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// withJobLock runs fn while holding the job lease. Without a locker the
// job always runs. It reports whether fn ran.
func (s *Scheduler) withJobLock(ctx context.Context, job string, fn func(context.Context) error) (bool, error) {
	if s.locker == nil {
		return true, fn(ctx)
	}

	key := fmt.Sprintf(jobLockKey, job)
	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		return false, fmt.Errorf("acquire %s lock: %w", job, err)
	}
	if !ok {
		obsmetrics.Scheduler().IncJobSkipped(job, obsmetrics.SchedulerJobReasonLockHeld)
		s.logger(ctx).Debug("scheduler.job.skipped", zap.String("job", job), zap.String("reason", "lock_held"))
		return false, nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger(ctx).Warn("scheduler.lock.release_failed", zap.String("job", job), zap.Error(err))
		}
	}()
	return true, fn(ctx)
}
