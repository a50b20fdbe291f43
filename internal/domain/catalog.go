package domain

import (
	"slices"
	"time"
)

// PlantKind identifies an entry in the plant catalog.
type PlantKind string

const (
	KindTomato PlantKind = "tomato"
	KindKale   PlantKind = "kale"
)

// PlantInfo holds the static growth thresholds of a plant kind.
// Thresholds are measured as time elapsed since planting.
type PlantInfo struct {
	Icon            string
	GerminationTime time.Duration
	ProductionTime  time.Duration
	LifeSpan        time.Duration
}

// catalog is shared read-only by every Plant.
var catalog = map[PlantKind]PlantInfo{
	KindTomato: {
		Icon:            "🍅",
		GerminationTime: 10 * time.Second,
		ProductionTime:  50 * time.Second,
		LifeSpan:        100 * time.Second,
	},
	KindKale: {
		Icon:            "🥬",
		GerminationTime: 20 * time.Second,
		ProductionTime:  30 * time.Second,
		LifeSpan:        80 * time.Second,
	},
}

// Lookup returns the catalog entry for kind.
func Lookup(kind PlantKind) (PlantInfo, bool) {
	info, ok := catalog[kind]
	return info, ok
}

// Kinds returns every catalog kind in a stable order.
func Kinds() []PlantKind {
	kinds := make([]PlantKind, 0, len(catalog))
	for k := range catalog {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
