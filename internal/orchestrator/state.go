package orchestrator

// State is the lifecycle position of an Orchestrator.
type State int

const (
	NotStarted State = iota
	Starting
	Reusing
	Ready
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Starting:
		return "starting"
	case Reusing:
		return "reusing"
	case Ready:
		return "ready"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
