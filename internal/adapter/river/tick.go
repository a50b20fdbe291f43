package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// TickJobArgs is the periodic job that drives simulation time.
type TickJobArgs struct{}

func (TickJobArgs) Kind() string { return "garden.tick" }

// InsertOpts disables retries: growth accumulates per tick, so retrying a
// failed tick would double-count it.
func (TickJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 1}
}

// TickWorker advances the garden on every periodic tick job.
type TickWorker struct {
	river.WorkerDefaults[TickJobArgs]
	ticker domain.Ticker
}

func (w *TickWorker) Work(ctx context.Context, job *river.Job[TickJobArgs]) error {
	if err := w.ticker.Tick(ctx); err != nil {
		slog.ErrorContext(ctx, "tick failed", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}
