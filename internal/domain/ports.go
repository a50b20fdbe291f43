package domain

import (
	"context"
	"time"
)

// EventPublisher defines the contract for emitting garden events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// EventJournal defines the persistence contract for the event history.
type EventJournal interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, filter JournalFilter) ([]Event, error)
}

// JournalFilter holds optional criteria for listing journal entries.
type JournalFilter struct {
	Kind   *EventKind
	Limit  int
	Offset int
}

// LifecycleMachine walks the lifecycle from an observed state to a later
// one and returns the transitions taken, in order.
type LifecycleMachine interface {
	Advance(ctx context.Context, from, to PlantState) ([]Transition, error)
}

// Clock supplies the current instant to the simulation.
type Clock interface {
	Now() time.Time
}

// Ticker advances the simulation by one tick.
type Ticker interface {
	Tick(ctx context.Context) error
}

// TickerFunc adapts a function to the Ticker interface.
type TickerFunc func(ctx context.Context) error

func (f TickerFunc) Tick(ctx context.Context) error { return f(ctx) }
