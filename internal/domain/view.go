package domain

import "time"

// SectionView is a read-only rendering of a section at an instant.
type SectionView struct {
	Occupied   bool
	Kind       PlantKind
	State      PlantState
	PlantedOn  time.Time
	Points     int
	CanPlant   bool
	CanHarvest bool
}

// BedView is a read-only rendering of a bed at an instant.
type BedView struct {
	Sections   []SectionView
	CanPlant   bool
	CanHarvest bool
}

// WorldView is everything a renderer needs to draw the garden at an instant.
type WorldView struct {
	Now        time.Time
	Date       time.Time
	Weather    WeatherInfo
	Version    uint64
	Beds       []BedView
	CanPlant   bool
	CanHarvest bool
	Stored     int
}

// View snapshots the world at now. The result shares no state with w.
func (w *World) View(now time.Time) WorldView {
	view := WorldView{
		Now:        now,
		Date:       w.Date(now),
		Weather:    w.weather.On(now),
		Version:    w.version,
		Beds:       make([]BedView, 0, len(w.beds)),
		CanPlant:   w.CanPlant(now),
		CanHarvest: w.CanHarvest(now),
		Stored:     len(w.stores),
	}

	for _, b := range w.beds {
		bv := BedView{
			Sections:   make([]SectionView, 0, BedSize),
			CanPlant:   b.CanPlant(now),
			CanHarvest: b.CanHarvest(now),
		}
		for _, s := range b.Sections() {
			sv := SectionView{
				CanPlant:   s.CanPlant(now),
				CanHarvest: s.CanHarvest(now),
			}
			if p, ok := s.Item(); ok {
				sv.Occupied = true
				sv.Kind = p.Kind
				sv.State = p.State(now)
				sv.PlantedOn = p.PlantedOn
				sv.Points = p.Points
			}
			bv.Sections = append(bv.Sections, sv)
		}
		view.Beds = append(view.Beds, bv)
	}

	return view
}
