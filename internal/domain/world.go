package domain

import (
	"math"
	"time"
)

// Slot locates a section inside the world.
type Slot struct {
	Bed     int
	Section int
}

// World owns the beds, the weather and the store of harvested goods.
// It is not safe for concurrent use.
type World struct {
	beds         []*Bed
	stores       []Harvested
	weather      Forecaster
	timeDilation float64
	epoch        time.Time
	version      uint64
}

// Option configures a World.
type Option func(*World)

// WithForecaster replaces the default weather profile.
func WithForecaster(f Forecaster) Option {
	return func(w *World) {
		w.weather = f
	}
}

// NewWorld creates an empty world. timeDilation and epoch fix the mapping
// from real time to the in-world calendar.
func NewWorld(timeDilation float64, epoch time.Time, opts ...Option) *World {
	w := &World{
		weather:      NewWeather(),
		timeDilation: timeDilation,
		epoch:        epoch,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Version increases with every mutating command.
func (w *World) Version() uint64 { return w.version }

func (w *World) Weather() Forecaster { return w.weather }

// Beds returns the beds in the order they were added.
func (w *World) Beds() []*Bed {
	out := make([]*Bed, len(w.beds))
	copy(out, w.beds)
	return out
}

// Stores returns every harvested record in harvest order.
func (w *World) Stores() []Harvested {
	out := make([]Harvested, len(w.stores))
	copy(out, w.stores)
	return out
}

// StoreCounts totals the harvested records per plant kind.
func (w *World) StoreCounts() map[PlantKind]int {
	counts := make(map[PlantKind]int)
	for _, h := range w.stores {
		counts[h.Plant.Kind]++
	}
	return counts
}

// AddBed appends an empty bed and returns its index.
func (w *World) AddBed() int {
	w.beds = append(w.beds, &Bed{})
	w.version++
	return len(w.beds) - 1
}

// Tick lets every plant accumulate growth for the weather at now.
// Each call counts; calling it twice for the same instant doubles the growth.
func (w *World) Tick(now time.Time) {
	for _, b := range w.beds {
		b.Tick(w.weather, now)
	}
	w.version++
}

// Date maps a real instant onto the in-world calendar. The dilated span is
// kept in float seconds since it outgrows a time.Duration within years.
func (w *World) Date(now time.Time) time.Time {
	secs := now.Sub(w.epoch).Seconds() * w.timeDilation
	whole, frac := math.Modf(secs)
	nsec := int64(w.epoch.Nanosecond()) + int64(math.Round(frac*1e9))
	return time.Unix(w.epoch.Unix()+int64(whole), nsec).In(w.epoch.Location())
}

func (w *World) CanPlant(now time.Time) bool {
	for _, b := range w.beds {
		if b.CanPlant(now) {
			return true
		}
	}
	return false
}

func (w *World) CanHarvest(now time.Time) bool {
	for _, b := range w.beds {
		if b.CanHarvest(now) {
			return true
		}
	}
	return false
}

// Plant puts a plant of the given kind into the first bed with room.
func (w *World) Plant(now time.Time, kind PlantKind) (Slot, error) {
	if _, ok := Lookup(kind); !ok {
		return Slot{}, &UnknownKindError{Kind: kind}
	}

	for i, b := range w.beds {
		if !b.CanPlant(now) {
			continue
		}
		section, err := b.Plant(now, kind)
		if err != nil {
			return Slot{}, err
		}
		w.version++
		return Slot{Bed: i, Section: section}, nil
	}

	return Slot{}, ErrNoRoomInWorld
}

// Harvest collects every producing plant, bed by bed, appends the
// snapshots to the store and returns them.
func (w *World) Harvest(now time.Time) []Harvested {
	var harvested []Harvested
	for _, b := range w.beds {
		harvested = append(harvested, b.Harvest(now)...)
	}
	w.stores = append(w.stores, harvested...)
	w.version++
	return harvested
}
