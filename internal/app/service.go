package app

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// observation is the last lifecycle state seen for the plant in a slot.
type observation struct {
	plantedOn time.Time
	state     domain.PlantState
}

// StoreSummary lists harvested goods with per-kind totals.
type StoreSummary struct {
	Harvested []domain.Harvested
	Counts    map[domain.PlantKind]int
}

// WeatherReport is the weather at an instant along with the garden date.
type WeatherReport struct {
	Now     time.Time
	Date    time.Time
	Weather domain.WeatherInfo
}

// GardenService orchestrates the garden simulation. It serialises every
// command and query on one mutex, so commands apply in arrival order.
type GardenService struct {
	mu        sync.Mutex
	world     *domain.World
	clock     domain.Clock
	publisher domain.EventPublisher
	machine   domain.LifecycleMachine
	journal   domain.EventJournal
	observed  map[domain.Slot]observation
}

// NewGardenService creates a service around world with the given adapters.
func NewGardenService(world *domain.World, clock domain.Clock, publisher domain.EventPublisher, machine domain.LifecycleMachine, journal domain.EventJournal) *GardenService {
	return &GardenService{
		world:     world,
		clock:     clock,
		publisher: publisher,
		machine:   machine,
		journal:   journal,
		observed:  make(map[domain.Slot]observation),
	}
}

// AddBed appends an empty bed and publishes bed.added.
func (s *GardenService) AddBed(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	idx := s.world.AddBed()

	e := s.newEvent(domain.EventBedAdded, now)
	e.Slot = &domain.Slot{Bed: idx, Section: -1}
	s.publish(ctx, e)
	return idx
}

// Plant puts a plant into the first free section and publishes plant.planted,
// preceded by any lifecycle steps observed since the last command so a dead
// plant that gets replaced is still reported as withered.
func (s *GardenService) Plant(ctx context.Context, kind domain.PlantKind) (domain.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	transitions, seen := s.observeLifecycle(ctx, now)

	slot, err := s.world.Plant(now, kind)
	if err != nil {
		return domain.Slot{}, err
	}
	maps.Copy(s.observed, seen)
	s.observed[slot] = observation{plantedOn: now, state: domain.StateGerminating}

	e := s.newEvent(domain.EventPlanted, now)
	e.Slot = &slot
	e.Plant = kind
	e.State = domain.StateGerminating

	for _, t := range transitions {
		s.publish(ctx, t)
	}
	s.publish(ctx, e)
	return slot, nil
}

// Harvest collects every producing plant into the store. One
// plant.harvested event is published per harvested section, or a single one
// with a zero count when nothing was ready.
func (s *GardenService) Harvest(ctx context.Context) []domain.Harvested {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	slots := s.harvestableSlots(now)
	harvested := s.world.Harvest(now)
	s.forgetEmptySlots()

	events := make([]domain.Event, 0, len(harvested))
	for i, h := range harvested {
		e := s.newEvent(domain.EventHarvested, now)
		e.Plant = h.Plant.Kind
		e.Count = 1
		if i < len(slots) {
			e.Slot = &slots[i]
		}
		events = append(events, e)
	}
	if len(events) == 0 {
		events = append(events, s.newEvent(domain.EventHarvested, now))
	}

	for _, e := range events {
		s.publish(ctx, e)
	}
	return harvested
}

// Tick advances growth by one step, publishes any lifecycle transitions
// observed since the previous command and then garden.ticked. A cancelled
// context stops the tick before anything changes.
func (s *GardenService) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.world.Tick(now)

	transitions, seen := s.observeLifecycle(ctx, now)
	maps.Copy(s.observed, seen)

	for _, e := range transitions {
		s.publish(ctx, e)
	}
	s.publish(ctx, s.newEvent(domain.EventTicked, now))
	return nil
}

// View returns a snapshot of the garden at the current instant.
func (s *GardenService) View(_ context.Context) domain.WorldView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.world.View(s.clock.Now())
}

// Stores returns the harvested goods.
func (s *GardenService) Stores(_ context.Context) StoreSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StoreSummary{
		Harvested: s.world.Stores(),
		Counts:    s.world.StoreCounts(),
	}
}

// Weather reports the current weather and garden date.
func (s *GardenService) Weather(_ context.Context) WeatherReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	return WeatherReport{
		Now:     now,
		Date:    s.world.Date(now),
		Weather: s.world.Weather().On(now),
	}
}

// CatalogEntry pairs a plant kind with its static info.
type CatalogEntry struct {
	Kind domain.PlantKind
	Info domain.PlantInfo
}

// Catalog lists the plant kinds that can be planted.
func (s *GardenService) Catalog() []CatalogEntry {
	kinds := domain.Kinds()
	out := make([]CatalogEntry, 0, len(kinds))
	for _, k := range kinds {
		info, _ := domain.Lookup(k)
		out = append(out, CatalogEntry{Kind: k, Info: info})
	}
	return out
}

// History lists journaled events, newest first.
func (s *GardenService) History(ctx context.Context, filter domain.JournalFilter) ([]domain.Event, error) {
	return s.journal.List(ctx, filter)
}

// observeLifecycle compares each plant's state with the last observation
// and returns one event per lifecycle step taken since then, along with the
// observations to remember once the caller commits. A slot whose steps the
// machine rejects is logged and left as it was.
func (s *GardenService) observeLifecycle(ctx context.Context, now time.Time) ([]domain.Event, map[domain.Slot]observation) {
	var events []domain.Event
	seen := make(map[domain.Slot]observation)

	for b, bed := range s.world.Beds() {
		for i, section := range bed.Sections() {
			slot := domain.Slot{Bed: b, Section: i}
			plant, ok := section.Item()
			if !ok {
				continue
			}

			prev, known := s.observed[slot]
			if !known || !prev.plantedOn.Equal(plant.PlantedOn) {
				prev = observation{plantedOn: plant.PlantedOn, state: domain.StateGerminating}
			}

			state := plant.State(now)
			if !prev.state.Before(state) {
				seen[slot] = prev
				continue
			}

			steps, err := s.machine.Advance(ctx, prev.state, state)
			if err != nil {
				slog.ErrorContext(ctx, "observing lifecycle",
					"bed", b,
					"section", i,
					"error", err,
				)
				continue
			}

			for _, step := range steps {
				e := s.newEvent(domain.KindOf(step.Event), now)
				e.Slot = &slot
				e.Plant = plant.Kind
				e.State = step.Dst
				events = append(events, e)
			}
			seen[slot] = observation{plantedOn: plant.PlantedOn, state: state}
		}
	}

	return events, seen
}

// harvestableSlots lists the sections World.Harvest will clear, in the
// order it returns their plants.
func (s *GardenService) harvestableSlots(now time.Time) []domain.Slot {
	var slots []domain.Slot
	for b, bed := range s.world.Beds() {
		for i, section := range bed.Sections() {
			if section.CanHarvest(now) {
				slots = append(slots, domain.Slot{Bed: b, Section: i})
			}
		}
	}
	return slots
}

func (s *GardenService) forgetEmptySlots() {
	beds := s.world.Beds()
	for slot := range s.observed {
		if _, ok := beds[slot.Bed].Sections()[slot.Section].Item(); !ok {
			delete(s.observed, slot)
		}
	}
}

func (s *GardenService) newEvent(kind domain.EventKind, now time.Time) domain.Event {
	return domain.Event{
		ID:         generateID(),
		Kind:       kind,
		OccurredAt: now,
		GardenDate: s.world.Date(now),
		Version:    s.world.Version(),
	}
}

// publish delivers an event for a command that has already been applied.
// Failures are logged, not returned: the garden has changed either way.
func (s *GardenService) publish(ctx context.Context, e domain.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "publishing event",
			"kind", e.Kind,
			"id", e.ID,
			"error", err,
		)
	}
}
