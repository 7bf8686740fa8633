package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"inventory-service/internal/redisclient"
	"inventory-service/internal/service"
	"inventory-service/internal/util"
)

const resetLockKey = "daily-metrics-reset"

// Scheduler runs the daily metrics reset job.
type Scheduler struct {
	cron     *cron.Cron
	metrics  *service.MetricsService
	redis    *redisclient.Client
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(metrics *service.MetricsService, redis *redisclient.Client, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		metrics:  metrics,
		redis:    redis,
		schedule: schedule,
		logger:   util.GetLogger(),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	_, err := s.cron.AddFunc(s.schedule, s.runDailyReset)
	if err != nil {
		s.logger.Error("failed to schedule daily metrics reset", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

// runDailyReset performs the reset under a distributed lock so exactly one
// instance runs it per day even when the service is scaled out.
func (s *Scheduler) runDailyReset() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	acquired, err := s.redis.AcquireLock(ctx, resetLockKey, time.Hour)
	if err != nil {
		s.logger.Error("failed to acquire reset lock", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Info("daily reset already running elsewhere, skipping")
		return
	}
	defer func() {
		if err := s.redis.ReleaseLock(ctx, resetLockKey); err != nil {
			s.logger.Error("failed to release reset lock", zap.Error(err))
		}
	}()

	count, err := s.metrics.ResetDaily(ctx)
	if err != nil {
		s.logger.Error("daily metrics reset failed", zap.Error(err))
		return
	}

	s.logger.Info("daily metrics reset finished", zap.Int("retailers", count))
}
