package domain

import "time"

// BedSize is the fixed number of sections in every bed.
const BedSize = 8

// Bed is a fixed-size ordered collection of sections.
type Bed struct {
	sections [BedSize]Section
}

// Sections returns the bed's sections in order.
func (b *Bed) Sections() []*Section {
	out := make([]*Section, BedSize)
	for i := range b.sections {
		out[i] = &b.sections[i]
	}
	return out
}

func (b *Bed) Tick(weather Forecaster, now time.Time) {
	for i := range b.sections {
		b.sections[i].Tick(weather, now)
	}
}

func (b *Bed) CanPlant(now time.Time) bool {
	return b.firstPlantable(now) >= 0
}

func (b *Bed) CanHarvest(now time.Time) bool {
	for i := range b.sections {
		if b.sections[i].CanHarvest(now) {
			return true
		}
	}
	return false
}

// Plant puts a new plant into the lowest-indexed eligible section and
// returns that index.
func (b *Bed) Plant(now time.Time, kind PlantKind) (int, error) {
	i := b.firstPlantable(now)
	if i < 0 {
		return -1, ErrNoRoomInBed
	}
	b.sections[i].Plant(now, kind)
	return i, nil
}

// Harvest collects every producing plant in section order. An empty
// result is not an error.
func (b *Bed) Harvest(now time.Time) []Harvested {
	var out []Harvested
	for i := range b.sections {
		if !b.sections[i].CanHarvest(now) {
			continue
		}
		h, err := b.sections[i].Harvest(now)
		if err != nil {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (b *Bed) firstPlantable(now time.Time) int {
	for i := range b.sections {
		if b.sections[i].CanPlant(now) {
			return i
		}
	}
	return -1
}
