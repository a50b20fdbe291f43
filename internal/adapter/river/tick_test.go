package river_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	riveradapter "github.com/neomorfeo/gardeniq/internal/adapter/river"
	"github.com/neomorfeo/gardeniq/internal/domain"
)

func TestSetup_PeriodicTick(t *testing.T) {
	db := setupTestDB(t)

	var ticks atomic.Int32
	ticker := domain.TickerFunc(func(context.Context) error {
		ticks.Add(1)
		return nil
	})

	_, completed := startClient(t, db, riveradapter.Options{
		Journal:      &memJournal{},
		Ticker:       ticker,
		TickInterval: time.Second,
	})

	deadline := time.After(15 * time.Second)
	for ticks.Load() == 0 {
		select {
		case event := <-completed:
			if event.Job.Kind != "garden.tick" {
				t.Errorf("job kind = %q, want %q", event.Job.Kind, "garden.tick")
			}
		case <-deadline:
			t.Fatal("timed out waiting for a tick")
		}
	}
}

func TestTickJobArgs_NoRetries(t *testing.T) {
	opts := riveradapter.TickJobArgs{}.InsertOpts()
	if opts.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", opts.MaxAttempts)
	}
}
