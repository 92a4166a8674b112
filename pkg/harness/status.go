package harness

import "github.com/TestFlowLabs/bridge/internal/orchestrator"

// Status is a snapshot of one orchestrated service.
type Status struct {
	Name    string
	URL     string
	Command string
	State   string
	// Owned is true when this run spawned the process.
	Owned bool
	PID   int
	Err   error
}

func statusOf(o *orchestrator.Orchestrator) Status {
	def := o.Definition()
	pid := o.PID()
	return Status{
		Name:    def.Name(),
		URL:     def.URL(),
		Command: def.Command(),
		State:   o.State().String(),
		Owned:   pid != 0,
		PID:     pid,
		Err:     o.Err(),
	}
}
