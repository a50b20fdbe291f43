package domain

import "time"

// EventKind names a change that happened in the garden.
type EventKind string

const (
	EventBedAdded  EventKind = "bed.added"
	EventPlanted   EventKind = "plant.planted"
	EventSprouted  EventKind = "plant.sprouted"
	EventRipened   EventKind = "plant.ripened"
	EventWithered  EventKind = "plant.withered"
	EventHarvested EventKind = "plant.harvested"
	EventTicked    EventKind = "garden.ticked"
)

// EventKinds lists every kind in declaration order.
var EventKinds = []EventKind{
	EventBedAdded,
	EventPlanted,
	EventSprouted,
	EventRipened,
	EventWithered,
	EventHarvested,
	EventTicked,
}

// Journaled reports whether events of this kind are kept in the journal.
// Ticks fire every interval and only matter to live subscribers.
func (k EventKind) Journaled() bool {
	return k != EventTicked
}

// lifecycleKinds maps lifecycle events to the garden event they produce.
var lifecycleKinds = map[LifecycleEvent]EventKind{
	LifecycleSprout: EventSprouted,
	LifecycleRipen:  EventRipened,
	LifecycleWither: EventWithered,
}

// KindOf returns the garden event kind for a lifecycle event.
func KindOf(e LifecycleEvent) EventKind {
	return lifecycleKinds[e]
}

// Event is the change signal emitted after every mutating command.
// Bed-level events carry a Slot whose Section is -1.
type Event struct {
	ID         string
	Kind       EventKind
	OccurredAt time.Time
	GardenDate time.Time
	Version    uint64
	Slot       *Slot
	Plant      PlantKind
	State      PlantState
	Count      int
}
