package domain

import "time"

// PlantState is the lifecycle stage of a plant at a given instant.
type PlantState string

const (
	StateGerminating PlantState = "germinating"
	StateGrowing     PlantState = "growing"
	StateProducing   PlantState = "producing"
	StateDead        PlantState = "dead"
)

// rank orders states along the lifecycle; unknown states rank below all.
func (s PlantState) rank() int {
	switch s {
	case StateGerminating:
		return 0
	case StateGrowing:
		return 1
	case StateProducing:
		return 2
	case StateDead:
		return 3
	default:
		return -1
	}
}

// Before reports whether s comes strictly earlier in the lifecycle than other.
func (s PlantState) Before(other PlantState) bool {
	return s.rank() < other.rank()
}

// Plant is a single planted organism.
type Plant struct {
	PlantedOn time.Time
	Kind      PlantKind
	Points    int
}

// NewPlant creates a plant of the given kind with no accumulated growth.
func NewPlant(now time.Time, kind PlantKind) Plant {
	return Plant{PlantedOn: now, Kind: kind}
}

// Info returns the catalog entry for the plant's kind.
func (p Plant) Info() PlantInfo {
	info, _ := Lookup(p.Kind)
	return info
}

// State derives the lifecycle stage from the time elapsed since planting.
// The lifespan check comes first, so dead is absorbing as now advances.
func (p Plant) State(now time.Time) PlantState {
	info := p.Info()
	elapsed := now.Sub(p.PlantedOn)

	switch {
	case elapsed > info.LifeSpan:
		return StateDead
	case elapsed > info.ProductionTime:
		return StateProducing
	case elapsed > info.GerminationTime:
		return StateGrowing
	default:
		return StateGerminating
	}
}

// Tick adds growth points according to the temperature forecast at now.
func (p *Plant) Tick(weather Forecaster, now time.Time) {
	p.Points += growthFor(weather.On(now).Temperature)
}

func growthFor(temperature float64) int {
	switch {
	case temperature > 80:
		return 3
	case temperature > 60:
		return 2
	default:
		return 1
	}
}

// Harvested is a snapshot of a plant taken when it was harvested.
type Harvested struct {
	HarvestedOn time.Time
	Plant       Plant
}
