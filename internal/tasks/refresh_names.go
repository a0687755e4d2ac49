package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookfinder/internal/services"
)

// NamesRefresher rebuilds the parser's name index.
type NamesRefresher interface {
	RefreshNames(ctx context.Context) (services.NameState, error)
}

// StatusRecorder stores the outcome of the last refresh.
type StatusRecorder interface {
	SetNamesRefreshStatus(status, message string) error
}

// RefreshNamesTask rebuilds the name index from the active library.
type RefreshNamesTask struct {
	Reason string `json:"reason,omitempty"`
}

func (t RefreshNamesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_names",
		MaxAttempts: 3,
		Backoff:     15 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshNamesProcessor creates a processor function for RefreshNamesTask.
// status may be nil.
func RefreshNamesProcessor(refresher NamesRefresher, status StatusRecorder) backlite.QueueProcessor[RefreshNamesTask] {
	return func(ctx context.Context, task RefreshNamesTask) error {
		if refresher == nil {
			return fmt.Errorf("names refresher not configured")
		}

		state, err := refresher.RefreshNames(ctx)
		if err != nil {
			record(status, "failed", err.Error())
			return fmt.Errorf("refresh names: %w", err)
		}

		msg := fmt.Sprintf("%s: %d authors, %d tags, %d series",
			state.Library, len(state.Index.Authors), len(state.Index.Tags), len(state.Index.Series))
		record(status, "success", msg)
		if task.Reason != "" {
			log.Printf("[TASK] Refreshed name index (%s): %s", task.Reason, msg)
		}
		return nil
	}
}

func record(status StatusRecorder, outcome, message string) {
	if status == nil {
		return
	}
	if err := status.SetNamesRefreshStatus(outcome, message); err != nil {
		log.Printf("[TASK] Failed to record name refresh status: %v", err)
	}
}

func NewRefreshNamesQueue(refresher NamesRefresher, status StatusRecorder) backlite.Queue {
	return backlite.NewQueue(RefreshNamesProcessor(refresher, status))
}
