package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

const defaultInterval = 6 * time.Hour

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type outcomeRecorder interface {
	Track(job string, started time.Time, err error)
}

// ServiceParams configure the scheduler. Metrics is optional.
type ServiceParams struct {
	Logger   *logger.Logger
	Locker   Locker
	Jobs     []Job
	Metrics  outcomeRecorder
	Interval time.Duration
}

// Service runs its jobs in order once at startup and then on every tick.
// A cycle only runs while this instance holds the lease, and is cut off when
// the lease would expire.
type Service struct {
	logg     *logger.Logger
	locker   Locker
	jobs     []Job
	metrics  outcomeRecorder
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Locker == nil {
		return nil, errors.New("locker required")
	}
	svc := &Service{
		logg:     params.Logger,
		locker:   params.Locker,
		metrics:  params.Metrics,
		interval: params.Interval,
	}
	for _, job := range params.Jobs {
		if job != nil {
			svc.jobs = append(svc.jobs, job)
		}
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	return svc, nil
}

// Run blocks until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.cycle(ctx); err != nil && ctx.Err() == nil {
			s.logg.Error(ctx, "scheduler.cycle_failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "scheduler.stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) cycle(ctx context.Context) error {
	release, held, err := s.locker.Acquire(ctx)
	if err != nil {
		return err
	}
	if !held {
		s.logg.Debug(ctx, "scheduler.lease_busy")
		return nil
	}
	defer func() {
		// ctx may already be canceled; the lease must still go back.
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "scheduler.release_failed")
		}
	}()

	leaseCtx, cancel := context.WithTimeout(ctx, s.locker.TTL())
	defer cancel()
	for _, job := range s.jobs {
		if err := leaseCtx.Err(); err != nil {
			return err
		}
		s.runJob(leaseCtx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	started := time.Now()
	err := job.Run(ctx)
	if s.metrics != nil {
		s.metrics.Track(job.Name(), started, err)
	}

	ctx = s.logg.WithField(ctx, "duration_ms", time.Since(started).Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "scheduler.job_failed", err)
		return
	}
	s.logg.Info(ctx, "scheduler.job_done")
}
