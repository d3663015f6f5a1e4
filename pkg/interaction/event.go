package interaction

import (
	"fmt"

	"github.com/dd0wney/topomap/pkg/topology"
)

// EventType identifies a queued input event.
type EventType int

const (
	PointerDown EventType = iota
	PointerMove
	PointerUp
	Wheel
	PointerLeave
	Resize
)

func (t EventType) String() string {
	switch t {
	case PointerDown:
		return "pointer_down"
	case PointerMove:
		return "pointer_move"
	case PointerUp:
		return "pointer_up"
	case Wheel:
		return "wheel"
	case PointerLeave:
		return "pointer_leave"
	case Resize:
		return "resize"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Event is one input in screen coordinates. Delta is in wheel notches,
// positive zooming out. Width and Height are used by Resize.
type Event struct {
	Type   EventType
	X, Y   float64
	Delta  float64
	Width  float64
	Height float64
}

// Tooltip is the hover payload, positioned near the cursor in screen space.
type Tooltip struct {
	NodeID string
	Name   string
	Kind   topology.Kind
	X, Y   float64
}

// Text is the tooltip line, "name (kind)".
func (t Tooltip) Text() string {
	return fmt.Sprintf("%s (%s)", t.Name, t.Kind)
}
