package service

import (
	"context"
	"time"

	"telecord/internal/constants"

	"github.com/sirupsen/logrus"
)

// StagingSweeper removes abandoned staged media files.
type StagingSweeper interface {
	SweepOrphans(maxAge time.Duration) (int, error)
}

// Scheduler periodically sweeps the staging directory for files orphaned by
// a crash or shutdown mid-forward. The forwarder deletes its own files on
// the happy path; the sweep is the backstop.
type Scheduler struct {
	sweeper  StagingSweeper
	maxAge   time.Duration
	interval time.Duration
	logger   *logrus.Logger
	stopCh   chan struct{}
}

func NewScheduler(sweeper StagingSweeper, maxAgeMin, intervalMin int, logger *logrus.Logger) *Scheduler {
	if maxAgeMin <= 0 {
		maxAgeMin = constants.DefaultStagingMaxAgeMinutes
	}
	if intervalMin <= 0 {
		intervalMin = constants.DefaultStagingSweepMinutes
	}
	return &Scheduler{
		sweeper:  sweeper,
		maxAge:   time.Duration(maxAgeMin) * time.Minute,
		interval: time.Duration(intervalMin) * time.Minute,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Starting staging sweep scheduler")

	s.runSweep()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled, stopping")
			return
		case <-s.stopCh:
			s.logger.Info("Scheduler stop signal received, stopping")
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) runSweep() {
	removed, err := s.sweeper.SweepOrphans(s.maxAge)
	if err != nil {
		s.logger.WithError(err).Error("Staging sweep failed")
		return
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Removed orphaned staged files")
	}
}
