package domain

// LifecycleEvent moves a plant from one lifecycle stage to the next.
type LifecycleEvent string

const (
	LifecycleSprout LifecycleEvent = "sprout"
	LifecycleRipen  LifecycleEvent = "ripen"
	LifecycleWither LifecycleEvent = "wither"
)

// Transition defines a valid state change: an event moves a plant from Src to Dst.
type Transition struct {
	Event LifecycleEvent
	Src   PlantState
	Dst   PlantState
}

// Transitions defines all valid state changes in the plant lifecycle.
// Every transition moves forward; nothing leaves StateDead.
var Transitions = []Transition{
	{Event: LifecycleSprout, Src: StateGerminating, Dst: StateGrowing},
	{Event: LifecycleRipen, Src: StateGrowing, Dst: StateProducing},
	{Event: LifecycleWither, Src: StateGerminating, Dst: StateDead},
	{Event: LifecycleWither, Src: StateGrowing, Dst: StateDead},
	{Event: LifecycleWither, Src: StateProducing, Dst: StateDead},
}
