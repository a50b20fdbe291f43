package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrNoRoomInBed      = errors.New("no more room to plant in this bed")
	ErrNoRoomInWorld    = errors.New("no more room to plant in any bed")
	ErrNothingToHarvest = errors.New("nothing is growing here")
)

// UnknownKindError is returned when a plant kind is not in the catalog.
type UnknownKindError struct {
	Kind PlantKind
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown plant kind %q", e.Kind)
}

// TransitionError is returned when a lifecycle transition is not allowed.
// Event is empty when no sequence of events reaches Target from Current.
type TransitionError struct {
	Event   LifecycleEvent
	Current PlantState
	Target  PlantState
}

func (e *TransitionError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("no lifecycle path from state %q to %q", e.Current, e.Target)
	}
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}
