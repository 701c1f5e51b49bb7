package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	streaks   StreakExpirer
	refresher ChallengeRefresher
	log       *zap.Logger
	ctx       context.Context
}

type StreakExpirer interface {
	ExpireStreaks(ctx context.Context) (int, error)
}

type ChallengeRefresher interface {
	RefreshStatuses(ctx context.Context) (int, error)
}

type Config struct {
	// StreakCron is a five field cron expression in Location.
	StreakCron      string
	RefreshInterval time.Duration
	Location        *time.Location
}

func New(cfg Config, streaks StreakExpirer, refresher ChallengeRefresher, log *zap.Logger) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		streaks:   streaks,
		refresher: refresher,
		log:       log,
		ctx:       context.Background(),
	}
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Cron(cfg.StreakCron).Tag("streaks").Do(s.expireStreaks); err != nil {
		return nil, errors.Wrapf(err, "schedule streak sweep %q", cfg.StreakCron)
	}
	if _, err := s.scheduler.Every(cfg.RefreshInterval).Tag("challenges").Do(s.refreshChallenges); err != nil {
		return nil, errors.Wrap(err, "schedule challenge refresh")
	}
	return s, nil
}

// Start runs the jobs in the background until ctx is done or Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) expireStreaks() {
	n, err := s.streaks.ExpireStreaks(s.ctx)
	if err != nil {
		s.log.Error("streak sweep failed", zap.Error(err))
		return
	}
	s.log.Info("streak sweep finished", zap.Int("expired", n))
}

func (s *Scheduler) refreshChallenges() {
	n, err := s.refresher.RefreshStatuses(s.ctx)
	if err != nil {
		s.log.Error("challenge refresh failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("challenge statuses updated", zap.Int("updated", n))
	}
}
