package river

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// EventWorker appends garden events from the River queue to the journal.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
	journal domain.EventJournal
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.DebugContext(ctx, "journaling event",
		"event_id", job.Args.ID,
		"kind", job.Args.EventKind,
		"version", job.Args.Version,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	if err := w.journal.Append(ctx, job.Args.Event()); err != nil {
		return fmt.Errorf("appending event %s: %w", job.Args.ID, err)
	}
	return nil
}
