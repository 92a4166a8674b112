package config

import (
	"path/filepath"

	"github.com/TestFlowLabs/bridge/internal/marker"
	"github.com/TestFlowLabs/bridge/internal/orchestrator"
	"github.com/TestFlowLabs/bridge/internal/probe"
	"github.com/TestFlowLabs/bridge/internal/registry"
	"github.com/TestFlowLabs/bridge/internal/service"
	"github.com/TestFlowLabs/bridge/pkg/mockbridge"
)

// definition builds the service definition, resolving a relative cwd
// against baseDir.
func (s ServiceConfig) definition(baseDir string) *service.Definition {
	var def *service.Definition
	if s.Name == "" {
		def = service.New(s.URL)
	} else {
		def = service.Named(s.Name, s.URL)
	}

	if s.Command != "" {
		cwd := s.Cwd
		if cwd != "" && baseDir != "" && !filepath.IsAbs(cwd) {
			cwd = filepath.Join(baseDir, cwd)
		} else if cwd == "" {
			cwd = baseDir
		}
		def.Serve(s.Command, cwd)
	}
	if s.ReadyPattern != "" {
		def.ReadyWhen(s.ReadyPattern)
	}
	if s.Warmup > 0 {
		def.Warmup(s.Warmup.D())
	}
	if len(s.Env) > 0 {
		def.Env(s.Env)
	}
	if s.TrustExisting {
		def.TrustExistingServer()
	}
	return def
}

// Definitions returns every service and child alias, parents before their
// children, in file order.
func (c Config) Definitions(baseDir string) []*service.Definition {
	var defs []*service.Definition
	for _, svc := range c.Services {
		def := svc.definition(baseDir)
		defs = append(defs, def)
		for _, child := range svc.Children {
			defs = append(defs, def.Child(child.Path, child.Name))
		}
	}
	return defs
}

// MarkerStore returns the store configured by markerDir.
func (c Config) MarkerStore() *marker.Store {
	return marker.NewStore(c.MarkerDir)
}

// Bridge returns the mock bridge configured by fakesFile.
func (c Config) Bridge() *mockbridge.Bridge {
	return mockbridge.New(c.FakesFile)
}

// OrchestratorOptions maps the configuration onto orchestrator.Options.
func (c Config) OrchestratorOptions() orchestrator.Options {
	return orchestrator.Options{
		Markers:            c.MarkerStore(),
		Prober:             probe.New(c.Probe.Timeout.D()),
		APIBaseURL:         c.APIURL,
		ReadyTimeout:       c.ReadyTimeout.D(),
		ProbeInterval:      c.Probe.Interval.D(),
		ProbeAttempts:      c.Probe.Attempts,
		FailOnProbeTimeout: c.Probe.FailOnTimeout,
		StopGracePeriod:    c.StopGracePeriod.D(),
	}
}

// RegistryOptions maps the configuration onto registry.Options.
func (c Config) RegistryOptions() registry.Options {
	return registry.Options{
		Orchestrator: c.OrchestratorOptions(),
		Parallel:     c.Parallel,
	}
}
