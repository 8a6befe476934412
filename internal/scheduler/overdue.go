// Package scheduler triggers periodic background work on a cron schedule.
package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/libreshelf/librarian/internal/config"
	"github.com/libreshelf/librarian/internal/tasks"
)

// OverdueScheduler enqueues the overdue-loan scan and audit cleanup tasks
// on a cron schedule.
type OverdueScheduler struct {
	taskClient *tasks.Client
	loansCfg   config.Loans
	auditCfg   config.Audit

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewOverdueScheduler creates a new scheduler instance.
func NewOverdueScheduler(taskClient *tasks.Client, loansCfg config.Loans, auditCfg config.Audit) *OverdueScheduler {
	return &OverdueScheduler{
		taskClient: taskClient,
		loansCfg:   loansCfg,
		auditCfg:   auditCfg,
		cron: cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the overdue scan is enabled.
func (s *OverdueScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.loansCfg.OverdueScanEnabled {
		log.Printf("Overdue scan scheduler: disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.loansCfg.OverdueScanSchedule, s.enqueueScan)
	if err != nil {
		return fmt.Errorf("failed to schedule overdue scan '%s': %w", s.loansCfg.OverdueScanSchedule, err)
	}

	// Audit cleanup piggybacks on a daily schedule.
	_, err = s.cron.AddFunc("30 3 * * *", s.enqueueAuditCleanup)
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Overdue scan scheduler started with schedule %q", s.loansCfg.OverdueScanSchedule)
	return nil
}

// Stop halts the scheduler. Already-enqueued tasks keep running on the
// task queue.
func (s *OverdueScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	log.Printf("Overdue scan scheduler stopped")
}

func (s *OverdueScheduler) enqueueScan() {
	if _, err := s.taskClient.Add(tasks.OverdueScanTask{}).Save(); err != nil {
		log.Printf("Failed to enqueue overdue scan: %v", err)
	}
}

func (s *OverdueScheduler) enqueueAuditCleanup() {
	task := tasks.CleanupAuditEventsTask{RetentionDays: s.auditCfg.RetentionDays}
	if _, err := s.taskClient.Add(task).Save(); err != nil {
		log.Printf("Failed to enqueue audit cleanup: %v", err)
	}
}
