package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"TruthTrader/internal/trader"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the poll cycle and the close-out guard on cron schedules.
type Scheduler struct {
	Cron   *cron.Cron
	Trader *trader.Trader
	Ctx    context.Context

	// cycleMu serializes cycles: a new poll never starts while a
	// reconciliation from the previous one is still pending, preserving the
	// at-most-one-reconciliation-per-signal guarantee.
	cycleMu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, t *trader.Trader) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Trader: t,
		Ctx:    ctx,
	}
}

// RegisterAll registers the poll and close-guard tasks.
func (s *Scheduler) RegisterAll(pollCron, closeGuardCron string) error {
	if _, err := s.Cron.AddFunc(pollCron, s.pollTask); err != nil {
		return fmt.Errorf("register poll task: %w", err)
	}
	if _, err := s.Cron.AddFunc(closeGuardCron, s.closeGuardTask); err != nil {
		return fmt.Errorf("register close-guard task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the poll task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.pollTask()
}

func (s *Scheduler) pollTask() {
	if !s.cycleMu.TryLock() {
		log.Println("[WARN] previous cycle still running, skipping this tick")
		return
	}
	defer s.cycleMu.Unlock()

	log.Println("[INFO] running poll cycle")
	result := s.Trader.RunCycle(s.Ctx)
	log.Printf("[INFO] cycle finished: %s", result.Outcome)
}

func (s *Scheduler) closeGuardTask() {
	if !s.cycleMu.TryLock() {
		return
	}
	defer s.cycleMu.Unlock()
	s.Trader.RunCloseGuard(s.Ctx)
}
