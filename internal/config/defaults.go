package config

import (
	"github.com/TestFlowLabs/bridge/internal/orchestrator"
	"github.com/TestFlowLabs/bridge/internal/probe"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "bridge.yaml"

// GetDefaultConfig returns the configuration used for every value the file
// leaves out.
func GetDefaultConfig() Config {
	return Config{
		ReadyTimeout: Duration(orchestrator.DefaultReadyTimeout),
		Probe: ProbeConfig{
			Interval: Duration(orchestrator.DefaultProbeInterval),
			Attempts: orchestrator.DefaultProbeAttempts,
			Timeout:  Duration(probe.DefaultTimeout),
		},
		StopGracePeriod: Duration(orchestrator.DefaultStopGracePeriod),
	}
}
