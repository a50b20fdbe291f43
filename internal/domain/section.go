package domain

import "time"

// Section is a single planting slot holding at most one plant.
type Section struct {
	item *Plant
}

// Item returns a copy of the plant in the section, if any.
func (s *Section) Item() (Plant, bool) {
	if s.item == nil {
		return Plant{}, false
	}
	return *s.item, true
}

// CanPlant reports whether the section is empty or its plant is dead.
func (s *Section) CanPlant(now time.Time) bool {
	return s.item == nil || s.item.State(now) == StateDead
}

// Plant replaces the section's content with a fresh plant. It does not
// check CanPlant; callers select an eligible section first.
func (s *Section) Plant(now time.Time, kind PlantKind) {
	p := NewPlant(now, kind)
	s.item = &p
}

// CanHarvest reports whether the section holds a producing plant.
func (s *Section) CanHarvest(now time.Time) bool {
	return s.item != nil && s.item.State(now) == StateProducing
}

// Harvest snapshots the plant and empties the section. Only absence is
// checked; callers use CanHarvest to avoid harvesting unripe plants.
func (s *Section) Harvest(now time.Time) (Harvested, error) {
	if s.item == nil {
		return Harvested{}, ErrNothingToHarvest
	}
	result := Harvested{HarvestedOn: now, Plant: *s.item}
	s.item = nil
	return result, nil
}

// Tick forwards to the plant, if any.
func (s *Section) Tick(weather Forecaster, now time.Time) {
	if s.item != nil {
		s.item.Tick(weather, now)
	}
}
