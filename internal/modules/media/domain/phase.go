package domain

import "fmt"

// Phase is the lifecycle state of the device stream.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseStarted
	PhaseInspected
	PhaseConstrained
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "stopped"
	case PhaseStarted:
		return "started"
	case PhaseInspected:
		return "inspected"
	case PhaseConstrained:
		return "constrained"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type ActionKind int

const (
	ActionStop ActionKind = iota
	ActionStart
	ActionInspect
	ActionConstrain
)

func (k ActionKind) String() string {
	switch k {
	case ActionStop:
		return "stop"
	case ActionStart:
		return "start"
	case ActionInspect:
		return "inspect"
	case ActionConstrain:
		return "constrain"
	default:
		return fmt.Sprintf("action(%d)", int(k))
	}
}

// Action is a settled lifecycle operation together with its result. The last
// settled action is the session state: its stream is live unless Kind is
// ActionStop.
type Action struct {
	Kind       ActionKind
	Init       InitConstraints
	Stream     Stream
	Inspection *Inspection
}

func (a Action) Phase() Phase {
	switch a.Kind {
	case ActionStart:
		return PhaseStarted
	case ActionInspect:
		return PhaseInspected
	case ActionConstrain:
		return PhaseConstrained
	default:
		return PhaseStopped
	}
}

// Live reports whether the action left a stream running.
func (a Action) Live() bool {
	return a.Kind != ActionStop && a.Stream != nil
}
