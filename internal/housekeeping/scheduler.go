// Package housekeeping runs the periodic maintenance jobs. Nothing the
// engine returns depends on them having run.
package housekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/DhavalSuthar-24/arena/internal/clock"
)

// StatusCheckpointer persists clock-driven status changes.
type StatusCheckpointer interface {
	CheckpointStatuses(ctx context.Context, now time.Time) (int, error)
}

// BanSweeper clears temporary bans that have run out.
type BanSweeper interface {
	SweepExpiredBans(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	sched    gocron.Scheduler
	statuses StatusCheckpointer
	bans     BanSweeper
	clock    clock.Clock
	interval time.Duration
	log      *slog.Logger
}

func New(statuses StatusCheckpointer, bans BanSweeper, clk clock.Clock, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{
		sched:    sched,
		statuses: statuses,
		bans:     bans,
		clock:    clk,
		interval: interval,
		log:      logger.With("component", "housekeeping"),
	}, nil
}

// Start registers both jobs and starts the scheduler. A run still in
// progress when the next one is due pushes the next one back.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		run  func(context.Context)
	}{
		{"match-status-checkpoint", s.checkpointStatuses},
		{"expired-ban-sweep", s.sweepBans},
	}
	for _, job := range jobs {
		run := job.run
		if _, err := s.sched.NewJob(
			gocron.DurationJob(s.interval),
			gocron.NewTask(func() { run(context.Background()) }),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return fmt.Errorf("schedule %s: %w", job.name, err)
		}
	}
	s.sched.Start()
	s.log.Info("housekeeping started", "interval", s.interval)
	return nil
}

// RunOnce runs both jobs inline.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.checkpointStatuses(ctx)
	s.sweepBans(ctx)
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) checkpointStatuses(ctx context.Context) {
	moved, err := s.statuses.CheckpointStatuses(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("status checkpoint failed", "error", err)
		return
	}
	if moved > 0 {
		s.log.Info("matches moved to LIVE", "count", moved)
	}
}

func (s *Scheduler) sweepBans(ctx context.Context) {
	cleared, err := s.bans.SweepExpiredBans(ctx, s.clock.Now())
	if err != nil {
		s.log.Error("ban sweep failed", "error", err)
		return
	}
	if cleared > 0 {
		s.log.Info("expired bans cleared", "count", cleared)
	}
}
