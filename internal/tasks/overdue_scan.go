package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/libreshelf/librarian/internal/entities"
)

// OverdueLoanFinder lists outstanding loans whose due date has passed.
type OverdueLoanFinder interface {
	GetOverdueLoans(now time.Time) ([]entities.Loan, error)
}

// OverdueScanTask walks the loan ledger and reports loans past their due
// date. It performs no mutation: overdue status is derived from the due
// date, the scan only surfaces it.
type OverdueScanTask struct{}

// Config returns the queue configuration for overdue scan tasks.
func (t OverdueScanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_scan",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueScanProcessor creates a processor function for OverdueScanTask.
func OverdueScanProcessor(finder OverdueLoanFinder) backlite.QueueProcessor[OverdueScanTask] {
	return func(ctx context.Context, task OverdueScanTask) error {
		if finder == nil {
			return fmt.Errorf("overdue loan finder not configured")
		}

		overdue, err := finder.GetOverdueLoans(time.Now())
		if err != nil {
			return fmt.Errorf("overdue scan: %w", err)
		}

		for _, loan := range overdue {
			title := "(deleted book)"
			if loan.Book != nil {
				title = loan.Book.Title
			}
			student := "(deleted user)"
			if loan.Student != nil {
				student = loan.Student.Username
			}
			log.Printf("[TASK] Overdue loan %d: %q issued to %s, due %s",
				loan.ID, title, student, loan.DueDate.Format("2006-01-02"))
		}
		log.Printf("[TASK] Overdue scan complete: %d overdue loans", len(overdue))
		return nil
	}
}

// NewOverdueScanQueue creates a backlite queue for overdue scan tasks.
func NewOverdueScanQueue(finder OverdueLoanFinder) backlite.Queue {
	return backlite.NewQueue(OverdueScanProcessor(finder))
}
