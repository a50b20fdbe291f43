package fsm

import (
	"context"
	"fmt"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/gardeniq/internal/domain"
)

// Compile-time check: Machine implements domain.LifecycleMachine.
var _ domain.LifecycleMachine = (*Machine)(nil)

// Machine walks plant lifecycles on a looplab/fsm state machine built from
// domain.Transitions.
type Machine struct {
	events []loopfsm.EventDesc
	dst    map[edge]domain.PlantState
}

type edge struct {
	event domain.LifecycleEvent
	src   domain.PlantState
}

// New creates a lifecycle machine from domain.Transitions.
func New() *Machine {
	m := &Machine{dst: make(map[edge]domain.PlantState, len(domain.Transitions))}
	for _, t := range domain.Transitions {
		m.events = append(m.events, loopfsm.EventDesc{
			Name: string(t.Event),
			Src:  []string{string(t.Src)},
			Dst:  string(t.Dst),
		})
		m.dst[edge{t.Event, t.Src}] = t.Dst
	}
	return m
}

// Advance fires events on a machine starting at from until it reaches to.
// At each stage it takes the available event landing on to, or failing
// that the one that moves closer without passing it; a plant that died is
// therefore withered directly. A target that cannot be reached returns a
// *domain.TransitionError.
func (m *Machine) Advance(ctx context.Context, from, to domain.PlantState) ([]domain.Transition, error) {
	machine := loopfsm.NewFSM(string(from), m.events, nil)

	var steps []domain.Transition
	for domain.PlantState(machine.Current()) != to {
		current := domain.PlantState(machine.Current())

		event, ok := m.next(current, to, machine.AvailableTransitions())
		if !ok {
			return nil, &domain.TransitionError{Current: current, Target: to}
		}

		if err := machine.Event(ctx, string(event)); err != nil {
			return nil, fmt.Errorf("firing %q from %q: %w", event, current, err)
		}

		steps = append(steps, domain.Transition{
			Event: event,
			Src:   current,
			Dst:   domain.PlantState(machine.Current()),
		})
	}

	return steps, nil
}

func (m *Machine) next(current, to domain.PlantState, available []string) (domain.LifecycleEvent, bool) {
	var closer domain.LifecycleEvent
	for _, name := range available {
		event := domain.LifecycleEvent(name)
		dst, ok := m.dst[edge{event, current}]
		if !ok {
			continue
		}
		if dst == to {
			return event, true
		}
		if dst.Before(to) {
			closer = event
		}
	}
	return closer, closer != ""
}
