package marker

import "time"

// Record asserts which process claimed a port, and from which directory.
type Record struct {
	Port      int       `json:"port"`
	Cwd       string    `json:"cwd"`
	Command   string    `json:"command"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Outcome is the result of comparing a port's marker with the directory a
// caller is about to serve from.
type Outcome int

const (
	// None means no marker exists; the port's occupant, if any, is unknown.
	None Outcome = iota
	// Match means the marker names the same directory and its pid is alive.
	Match
	// Stale means the marker names the same directory but its pid is gone.
	Stale
	// Mismatch means the marker names a different directory.
	Mismatch
)

// String returns the string representation of an Outcome
func (o Outcome) String() string {
	switch o {
	case None:
		return "none"
	case Match:
		return "match"
	case Stale:
		return "stale"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}
