package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neomorfeo/gardeniq/internal/app"
	"github.com/neomorfeo/gardeniq/internal/domain"
)

// --- Mocks ---

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type mockPublisher struct {
	events []domain.Event
}

func (m *mockPublisher) Publish(_ context.Context, e domain.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) kinds() []domain.EventKind {
	out := make([]domain.EventKind, len(m.events))
	for i, e := range m.events {
		out[i] = e.Kind
	}
	return out
}

func (m *mockPublisher) reset() { m.events = nil }

type failingPublisher struct{}

func (p *failingPublisher) Publish(_ context.Context, _ domain.Event) error {
	return errors.New("publish failed")
}

// tableMachine walks domain.Transitions without looplab/fsm, preferring the
// transition that lands on the target.
type tableMachine struct{}

func (m *tableMachine) Advance(_ context.Context, from, to domain.PlantState) ([]domain.Transition, error) {
	var steps []domain.Transition
	for current := from; current != to; {
		next, ok := domain.Transition{}, false
		for _, tr := range domain.Transitions {
			if tr.Src != current {
				continue
			}
			if tr.Dst == to {
				next, ok = tr, true
				break
			}
			if tr.Dst.Before(to) {
				next, ok = tr, true
			}
		}
		if !ok {
			return nil, &domain.TransitionError{Current: current, Target: to}
		}
		steps = append(steps, next)
		current = next.Dst
	}
	return steps, nil
}

type rejectingMachine struct{}

func (m *rejectingMachine) Advance(_ context.Context, from, to domain.PlantState) ([]domain.Transition, error) {
	return nil, &domain.TransitionError{Current: from, Target: to}
}

type mockJournal struct {
	events []domain.Event
}

func (m *mockJournal) Append(_ context.Context, e domain.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockJournal) List(_ context.Context, _ domain.JournalFilter) ([]domain.Event, error) {
	return m.events, nil
}

type constantWeather float64

func (c constantWeather) On(time.Time) domain.WeatherInfo {
	return domain.WeatherInfo{Temperature: float64(c)}
}

var epoch = time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *app.GardenService
	clock *fakeClock
	pub   *mockPublisher
	world *domain.World
}

func newFixture(t *testing.T, beds int) fixture {
	t.Helper()
	world := domain.NewWorld(60, epoch, domain.WithForecaster(constantWeather(70)))
	for range beds {
		world.AddBed()
	}
	clock := &fakeClock{now: epoch}
	pub := &mockPublisher{}
	svc := app.NewGardenService(world, clock, pub, &tableMachine{}, &mockJournal{})
	return fixture{svc: svc, clock: clock, pub: pub, world: world}
}

// --- Tests ---

func TestAddBed_PublishesEvent(t *testing.T) {
	f := newFixture(t, 0)

	idx := f.svc.AddBed(context.Background())
	if idx != 0 {
		t.Errorf("idx = %d, want 0", idx)
	}
	if len(f.world.Beds()) != 1 {
		t.Errorf("world has %d beds, want 1", len(f.world.Beds()))
	}

	if len(f.pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.pub.events))
	}
	e := f.pub.events[0]
	if e.Kind != domain.EventBedAdded {
		t.Errorf("event = %q, want %q", e.Kind, domain.EventBedAdded)
	}
	if e.ID == "" {
		t.Error("event ID should not be empty")
	}
	if e.Version != f.world.Version() {
		t.Errorf("Version = %d, want %d", e.Version, f.world.Version())
	}
}

func TestPlant_Success(t *testing.T) {
	f := newFixture(t, 1)

	slot, err := f.svc.Plant(context.Background(), domain.KindKale)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != (domain.Slot{Bed: 0, Section: 0}) {
		t.Errorf("slot = %+v, want bed 0 section 0", slot)
	}

	if len(f.pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.pub.events))
	}
	e := f.pub.events[0]
	if e.Kind != domain.EventPlanted || e.Plant != domain.KindKale {
		t.Errorf("event = %+v", e)
	}
	if e.Slot == nil || *e.Slot != slot {
		t.Errorf("event slot = %v, want %v", e.Slot, slot)
	}
}

func TestPlant_NoRoom(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	for range domain.BedSize {
		if _, err := f.svc.Plant(ctx, domain.KindTomato); err != nil {
			t.Fatalf("plant: %v", err)
		}
	}
	f.pub.reset()

	_, err := f.svc.Plant(ctx, domain.KindTomato)
	if !errors.Is(err, domain.ErrNoRoomInWorld) {
		t.Fatalf("expected ErrNoRoomInWorld, got %v", err)
	}
	if len(f.pub.events) != 0 {
		t.Errorf("failed command published %d events", len(f.pub.events))
	}
}

func TestPlant_UnknownKind(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.Plant(context.Background(), "cactus")
	var kindErr *domain.UnknownKindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("expected UnknownKindError, got %v", err)
	}
}

func TestTick_EmitsLifecycleEvents(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	if _, err := f.svc.Plant(ctx, domain.KindKale); err != nil {
		t.Fatalf("plant: %v", err)
	}
	f.pub.reset()

	// germinating: nothing but the tick itself.
	f.clock.Advance(10 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, f.pub.kinds(), domain.EventTicked)
	f.pub.reset()

	// Skipping straight to producing yields sprout then ripen.
	f.clock.Advance(25 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, f.pub.kinds(), domain.EventSprouted, domain.EventRipened, domain.EventTicked)
	if f.pub.events[1].State != domain.StateProducing {
		t.Errorf("ripened State = %q, want %q", f.pub.events[1].State, domain.StateProducing)
	}
	f.pub.reset()

	// Already producing: no repeat.
	f.clock.Advance(time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, f.pub.kinds(), domain.EventTicked)
	f.pub.reset()

	f.clock.Advance(60 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, f.pub.kinds(), domain.EventWithered, domain.EventTicked)
	f.pub.reset()

	// Dead is absorbing: no further lifecycle events.
	f.clock.Advance(60 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, f.pub.kinds(), domain.EventTicked)
}

func TestTick_ReplantedSlotStartsOver(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	if _, err := f.svc.Plant(ctx, domain.KindKale); err != nil {
		t.Fatalf("plant: %v", err)
	}
	f.clock.Advance(90 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if _, err := f.svc.Plant(ctx, domain.KindKale); err != nil {
		t.Fatalf("replant: %v", err)
	}
	f.pub.reset()

	f.clock.Advance(25 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, f.pub.kinds(), domain.EventSprouted, domain.EventTicked)
}

func TestTick_AccumulatesPoints(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	if _, err := f.svc.Plant(ctx, domain.KindTomato); err != nil {
		t.Fatalf("plant: %v", err)
	}
	for range 3 {
		f.clock.Advance(time.Second)
		if err := f.svc.Tick(ctx); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}

	view := f.svc.View(ctx)
	if got := view.Beds[0].Sections[0].Points; got != 6 {
		t.Errorf("Points = %d, want 6", got)
	}
}

func TestTick_MachineRejectsStillTicks(t *testing.T) {
	world := domain.NewWorld(1, epoch, domain.WithForecaster(constantWeather(70)))
	world.AddBed()
	clock := &fakeClock{now: epoch}
	pub := &mockPublisher{}
	svc := app.NewGardenService(world, clock, pub, &rejectingMachine{}, &mockJournal{})

	if _, err := svc.Plant(context.Background(), domain.KindKale); err != nil {
		t.Fatalf("plant: %v", err)
	}
	pub.reset()
	clock.Advance(25 * time.Second)

	if err := svc.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, pub.kinds(), domain.EventTicked)

	p, _ := world.Beds()[0].Sections()[0].Item()
	if p.Points != 2 {
		t.Errorf("Points = %d, want 2", p.Points)
	}
}

func TestTick_CancelledContext(t *testing.T) {
	f := newFixture(t, 1)
	v := f.world.Version()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.svc.Tick(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.world.Version() != v {
		t.Error("a cancelled tick should not change the garden")
	}
	if len(f.pub.events) != 0 {
		t.Errorf("cancelled tick published %d events", len(f.pub.events))
	}
}

func TestTick_ClockGoingBackwardsIsIgnored(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	if _, err := f.svc.Plant(ctx, domain.KindKale); err != nil {
		t.Fatalf("plant: %v", err)
	}
	f.clock.Advance(25 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	f.pub.reset()

	f.clock.Advance(-20 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, f.pub.kinds(), domain.EventTicked)
}

func TestPlant_ReportsWitherOfReplacedPlant(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	if _, err := f.svc.Plant(ctx, domain.KindKale); err != nil {
		t.Fatalf("plant: %v", err)
	}
	f.pub.reset()

	// No tick while the kale lives and dies.
	f.clock.Advance(90 * time.Second)
	slot, err := f.svc.Plant(ctx, domain.KindTomato)
	if err != nil {
		t.Fatalf("replant: %v", err)
	}
	if slot != (domain.Slot{Bed: 0, Section: 0}) {
		t.Fatalf("slot = %+v, want the dead kale's section", slot)
	}

	assertKinds(t, f.pub.kinds(), domain.EventWithered, domain.EventPlanted)
	withered := f.pub.events[0]
	if withered.Plant != domain.KindKale || withered.Slot == nil || *withered.Slot != slot {
		t.Errorf("withered event = %+v, want kale at %+v", withered, slot)
	}

	// The new tomato starts its own lifecycle.
	f.pub.reset()
	f.clock.Advance(15 * time.Second)
	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	assertKinds(t, f.pub.kinds(), domain.EventSprouted, domain.EventTicked)
}

func TestPlant_FailureLeavesObservationsPending(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	for range domain.BedSize {
		if _, err := f.svc.Plant(ctx, domain.KindTomato); err != nil {
			t.Fatalf("plant: %v", err)
		}
	}
	f.clock.Advance(15 * time.Second)
	f.pub.reset()

	if _, err := f.svc.Plant(ctx, domain.KindTomato); !errors.Is(err, domain.ErrNoRoomInWorld) {
		t.Fatalf("expected ErrNoRoomInWorld, got %v", err)
	}
	if len(f.pub.events) != 0 {
		t.Fatalf("failed plant published %d events", len(f.pub.events))
	}

	if err := f.svc.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if got := len(f.pub.events); got != domain.BedSize+1 {
		t.Errorf("tick published %d events, want %d sprouts and the tick", got, domain.BedSize)
	}
}

func TestHarvest_CollectsProducing(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	if _, err := f.svc.Plant(ctx, domain.KindKale); err != nil {
		t.Fatalf("plant: %v", err)
	}
	if _, err := f.svc.Plant(ctx, domain.KindTomato); err != nil {
		t.Fatalf("plant: %v", err)
	}
	f.clock.Advance(40 * time.Second)
	f.pub.reset()

	harvested := f.svc.Harvest(ctx)
	if len(harvested) != 1 || harvested[0].Plant.Kind != domain.KindKale {
		t.Fatalf("harvested = %+v, want one kale", harvested)
	}
	assertKinds(t, f.pub.kinds(), domain.EventHarvested)
	if f.pub.events[0].Count != 1 {
		t.Errorf("Count = %d, want 1", f.pub.events[0].Count)
	}
	if slot := f.pub.events[0].Slot; slot == nil || *slot != (domain.Slot{Bed: 0, Section: 0}) {
		t.Errorf("Slot = %v, want bed 0 section 0", slot)
	}

	stores := f.svc.Stores(ctx)
	if len(stores.Harvested) != 1 {
		t.Errorf("stores has %d entries, want 1", len(stores.Harvested))
	}
	if stores.Counts[domain.KindKale] != 1 {
		t.Errorf("kale count = %d, want 1", stores.Counts[domain.KindKale])
	}
}

func TestHarvest_NothingReadyStillSignals(t *testing.T) {
	f := newFixture(t, 1)

	harvested := f.svc.Harvest(context.Background())
	if len(harvested) != 0 {
		t.Errorf("harvested %d, want 0", len(harvested))
	}
	assertKinds(t, f.pub.kinds(), domain.EventHarvested)
	if f.pub.events[0].Count != 0 {
		t.Errorf("Count = %d, want 0", f.pub.events[0].Count)
	}
}

func TestCommand_PublishErrorKeepsResult(t *testing.T) {
	world := domain.NewWorld(1, epoch, domain.WithForecaster(constantWeather(70)))
	clock := &fakeClock{now: epoch}
	svc := app.NewGardenService(world, clock, &failingPublisher{}, &tableMachine{}, &mockJournal{})
	ctx := context.Background()

	if idx := svc.AddBed(ctx); idx != 0 || len(world.Beds()) != 1 {
		t.Fatalf("AddBed = %d with %d beds, want bed 0 added", idx, len(world.Beds()))
	}

	slot, err := svc.Plant(ctx, domain.KindKale)
	if err != nil {
		t.Fatalf("plant should succeed despite publish failure: %v", err)
	}
	if slot != (domain.Slot{Bed: 0, Section: 0}) {
		t.Errorf("slot = %+v", slot)
	}

	if err := svc.Tick(ctx); err != nil {
		t.Fatalf("tick should succeed despite publish failure: %v", err)
	}

	clock.Advance(35 * time.Second)
	harvested := svc.Harvest(ctx)
	if len(harvested) != 1 {
		t.Fatalf("harvested %d, want 1", len(harvested))
	}
	if stored := svc.Stores(ctx).Harvested; len(stored) != 1 {
		t.Errorf("stores has %d entries, want 1", len(stored))
	}
}

func TestHarvest_EventsCarrySlots(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	for range domain.BedSize + 2 {
		if _, err := f.svc.Plant(ctx, domain.KindKale); err != nil {
			t.Fatalf("plant: %v", err)
		}
	}
	f.clock.Advance(35 * time.Second)
	f.pub.reset()

	harvested := f.svc.Harvest(ctx)
	if len(harvested) != domain.BedSize+2 {
		t.Fatalf("harvested %d, want %d", len(harvested), domain.BedSize+2)
	}

	want := []domain.Slot{{Bed: 1, Section: 0}, {Bed: 1, Section: 1}}
	got := f.pub.events[domain.BedSize:]
	for i, e := range got {
		if e.Slot == nil || *e.Slot != want[i] {
			t.Errorf("event %d slot = %v, want %+v", domain.BedSize+i, e.Slot, want[i])
		}
	}
}

func TestWeather(t *testing.T) {
	f := newFixture(t, 0)
	f.clock.Advance(2 * time.Second)

	report := f.svc.Weather(context.Background())
	if report.Weather.Temperature != 70 {
		t.Errorf("Temperature = %v, want 70", report.Weather.Temperature)
	}
	if !report.Date.Equal(epoch.Add(2 * time.Minute)) {
		t.Errorf("Date = %v, want %v", report.Date, epoch.Add(2*time.Minute))
	}
}

func TestCatalog(t *testing.T) {
	f := newFixture(t, 0)

	entries := f.svc.Catalog()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Kind != domain.KindKale || entries[1].Kind != domain.KindTomato {
		t.Errorf("entries = %+v", entries)
	}
}

func TestFanOut_JoinsErrors(t *testing.T) {
	ok := &mockPublisher{}
	fan := app.FanOut{&failingPublisher{}, ok}

	err := fan.Publish(context.Background(), domain.Event{Kind: domain.EventTicked})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(ok.events) != 1 {
		t.Errorf("healthy publisher got %d events, want 1", len(ok.events))
	}
}

func assertKinds(t *testing.T, got []domain.EventKind, want ...domain.EventKind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
