package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries a garden event to the journal worker. River
// serializes this as JSON into its job queue table, so the worker never
// needs to look at the live world.
type EventJobArgs struct {
	ID         string    `json:"id"`
	EventKind  string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	GardenDate time.Time `json:"garden_date"`
	Version    uint64    `json:"version"`
	Bed        *int      `json:"bed,omitempty"`
	Section    *int      `json:"section,omitempty"`
	Plant      string    `json:"plant,omitempty"`
	State      string    `json:"state,omitempty"`
	Count      int       `json:"count,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "garden.event" }

func newEventJobArgs(e domain.Event) EventJobArgs {
	args := EventJobArgs{
		ID:         e.ID,
		EventKind:  string(e.Kind),
		OccurredAt: e.OccurredAt,
		GardenDate: e.GardenDate,
		Version:    e.Version,
		Plant:      string(e.Plant),
		State:      string(e.State),
		Count:      e.Count,
	}
	if e.Slot != nil {
		bed, section := e.Slot.Bed, e.Slot.Section
		args.Bed = &bed
		args.Section = &section
	}
	return args
}

// Event converts the job payload back into a domain event.
func (a EventJobArgs) Event() domain.Event {
	e := domain.Event{
		ID:         a.ID,
		Kind:       domain.EventKind(a.EventKind),
		OccurredAt: a.OccurredAt,
		GardenDate: a.GardenDate,
		Version:    a.Version,
		Plant:      domain.PlantKind(a.Plant),
		State:      domain.PlantState(a.State),
		Count:      a.Count,
	}
	if a.Bed != nil && a.Section != nil {
		e.Slot = &domain.Slot{Bed: *a.Bed, Section: *a.Section}
	}
	return e
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a journaled event as an async job in River. Events that
// are not journaled are dropped here.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	if !event.Kind.Journaled() {
		return nil
	}

	_, err := p.client.Insert(ctx, newEventJobArgs(event), nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}
