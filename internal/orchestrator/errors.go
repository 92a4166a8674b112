package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPortConflict is matched by every *PortConflictError.
var ErrPortConflict = errors.New("port conflict")

// ErrNotReady is matched by every *ReadinessError.
var ErrNotReady = errors.New("service not ready")

// ConflictKind classifies why a port could not be claimed.
type ConflictKind int

const (
	// ConflictForeignApp means a live marker names another working directory.
	ConflictForeignApp ConflictKind = iota
	// ConflictReclaimed means the recorded owner died and something else took the port.
	ConflictReclaimed
	// ConflictUnverified means the port is in use and no marker vouches for it.
	ConflictUnverified
)

func (k ConflictKind) String() string {
	switch k {
	case ConflictForeignApp:
		return "foreign-app"
	case ConflictReclaimed:
		return "reclaimed"
	case ConflictUnverified:
		return "unverified"
	default:
		return fmt.Sprintf("ConflictKind(%d)", int(k))
	}
}

// PortConflictError is returned by Start when the service port is occupied
// by something this run must not reuse.
type PortConflictError struct {
	Kind        ConflictKind
	Service     string
	Port        int
	URL         string
	Cwd         string
	RecordedCwd string
}

func (e *PortConflictError) Error() string {
	switch e.Kind {
	case ConflictForeignApp:
		return fmt.Sprintf("service %q: port %d is used by a dev server started from %s, not %s; stop it or pick another port",
			e.Service, e.Port, e.RecordedCwd, e.Cwd)
	case ConflictReclaimed:
		return fmt.Sprintf("service %q: port %d was recorded for a process that has exited, but something else is now listening on it; free the port",
			e.Service, e.Port)
	default:
		return fmt.Sprintf("service %q: port %d (%s) is in use by a process that bridge did not start; free the port or call TrustExistingServer() to reuse it",
			e.Service, e.Port, e.URL)
	}
}

// Is lets errors.Is match ErrPortConflict.
func (e *PortConflictError) Is(target error) bool {
	return target == ErrPortConflict
}

// ReadinessReason classifies a readiness failure.
type ReadinessReason int

const (
	// ReasonSpawn means the command could not be started at all.
	ReasonSpawn ReadinessReason = iota
	// ReasonExited means the process exited before printing the ready pattern.
	ReasonExited
	// ReasonNotReady means the process kept running without printing the
	// pattern before the timeout or cancellation.
	ReasonNotReady
	// ReasonUnreachable means the HTTP probe never got an answer and the
	// orchestrator was configured to treat that as fatal.
	ReasonUnreachable
)

func (r ReadinessReason) String() string {
	switch r {
	case ReasonSpawn:
		return "spawn failed"
	case ReasonExited:
		return "exited before ready"
	case ReasonNotReady:
		return "not ready"
	case ReasonUnreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("ReadinessReason(%d)", int(r))
	}
}

// ReadinessError is returned by Start when a spawned service failed to come
// up. Output holds everything the process printed.
type ReadinessError struct {
	Reason  ReadinessReason
	Service string
	Command string
	Output  string
	Err     error
}

func (e *ReadinessError) Error() string {
	var b strings.Builder
	switch e.Reason {
	case ReasonSpawn:
		fmt.Fprintf(&b, "service %q: failed to start", e.Service)
	case ReasonExited:
		fmt.Fprintf(&b, "service %q: process exited before it reported ready", e.Service)
	case ReasonUnreachable:
		fmt.Fprintf(&b, "service %q: never answered HTTP requests", e.Service)
	default:
		fmt.Fprintf(&b, "service %q: process is running but did not report ready", e.Service)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	fmt.Fprintf(&b, "\ncommand: %s", e.Command)
	if e.Output != "" {
		fmt.Fprintf(&b, "\noutput:\n%s", e.Output)
	} else {
		b.WriteString("\noutput: (none)")
	}
	return b.String()
}

// Is lets errors.Is match ErrNotReady.
func (e *ReadinessError) Is(target error) bool {
	return target == ErrNotReady
}

func (e *ReadinessError) Unwrap() error {
	return e.Err
}
