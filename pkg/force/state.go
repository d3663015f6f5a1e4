package force

// State is the engine lifecycle state.
type State int

const (
	// Idle is the state before Start.
	Idle State = iota
	// Running ticks are being scheduled.
	Running
	// Cooling means alpha fell below AlphaMin; the layout is at rest and
	// hosts stop scheduling frames until a reheat.
	Cooling
	// Stopped is terminal.
	Stopped
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cooling:
		return "cooling"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
