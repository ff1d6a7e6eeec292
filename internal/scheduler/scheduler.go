// Package scheduler runs the periodic catalog sync on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"bizmatch/internal/usecase"
)

type Scheduler struct {
	cron   *cron.Cron
	sync   usecase.SyncUsecase
	spec   string
	logger *log.Logger
}

func New(sync usecase.SyncUsecase, spec string, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		sync:   sync,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the sync job and starts the cron loop. Ticks that overlap a
// still-running sync simply run after it; sources are idempotent upserts.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Printf("[Scheduler] Cron started: %s", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Println("[Scheduler] Cron stopped")
}

func (s *Scheduler) runSync(ctx context.Context) {
	summary, err := s.sync.RunAll(ctx)
	if err != nil {
		s.logger.Printf("[Scheduler] Sync failed: %v", err)
		return
	}
	s.logger.Printf("[Scheduler] Sync complete: %d/%d source(s) ok, %d program(s)",
		summary.Succeeded, summary.Total, summary.ProgramCount)
}
