package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookfinder/internal/database/tags"
)

// OrphanCleaner deletes tags, authors and series no book refers to.
type OrphanCleaner interface {
	DeleteOrphans() (tags.OrphanReport, error)
}

// CleanupOrphansTask prunes unreferenced names so they stop showing up in
// the name index.
type CleanupOrphansTask struct{}

func (t CleanupOrphansTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphans",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupOrphansProcessor creates a processor function for CleanupOrphansTask.
func CleanupOrphansProcessor(cleaner OrphanCleaner) backlite.QueueProcessor[CleanupOrphansTask] {
	return func(ctx context.Context, task CleanupOrphansTask) error {
		if cleaner == nil {
			return fmt.Errorf("orphan cleaner not configured")
		}

		report, err := cleaner.DeleteOrphans()
		if err != nil {
			return fmt.Errorf("cleanup orphans: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d orphan tags, %d authors, %d series",
			report.Tags, report.Authors, report.Series)
		return nil
	}
}

func NewCleanupOrphansQueue(cleaner OrphanCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupOrphansProcessor(cleaner))
}
