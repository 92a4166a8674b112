package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TestFlowLabs/bridge/internal/browsermock"
	"github.com/TestFlowLabs/bridge/internal/config"
	"github.com/TestFlowLabs/bridge/internal/marker"
	"github.com/TestFlowLabs/bridge/internal/orchestrator"
	"github.com/TestFlowLabs/bridge/internal/probe"
	"github.com/TestFlowLabs/bridge/internal/registry"
	"github.com/TestFlowLabs/bridge/internal/service"
	"github.com/TestFlowLabs/bridge/pkg/logging"
	"github.com/TestFlowLabs/bridge/pkg/mockbridge"
)

const subsystem = "Harness"

// Definition describes a service; see Service and NamedService.
type Definition = service.Definition

// Rule is a canned HTTP response.
type Rule = mockbridge.Rule

// RuleSet is an ordered set of rules keyed by URL pattern.
type RuleSet = mockbridge.RuleSet

// Service starts a definition for the default service at url.
func Service(url string) *Definition { return service.New(url) }

// NamedService starts a definition for the service called name.
func NamedService(name, url string) *Definition { return service.Named(name, url) }

// NewRuleSet returns an empty rule set for FakeBackend.
func NewRuleSet() *RuleSet { return mockbridge.NewRuleSet() }

// Browser is the part of a browser driver Navigate needs. Implementations
// must be comparable, which pointer types are.
type Browser interface {
	// AddInitScript registers script to run before any page script on every
	// later navigation.
	AddInitScript(ctx context.Context, script string) error
	// Goto navigates to url and waits for the page to load.
	Goto(ctx context.Context, url string) error
}

// Options configures a Run. Zero values take the orchestrator defaults.
type Options struct {
	// APIBaseURL is injected into spawned dev servers.
	APIBaseURL string
	// MarkerDir defaults to marker.DefaultDir().
	MarkerDir string
	// FakesFile defaults to mockbridge.DefaultPath().
	FakesFile string

	ReadyTimeout       time.Duration
	ProbeInterval      time.Duration
	ProbeAttempts      int
	ProbeTimeout       time.Duration
	FailOnProbeTimeout bool
	StopGracePeriod    time.Duration

	// Parallel starts services concurrently.
	Parallel bool

	// Output receives a copy of everything spawned servers print.
	Output io.Writer
}

func (o Options) registryOptions() registry.Options {
	return registry.Options{
		Parallel: o.Parallel,
		Orchestrator: orchestrator.Options{
			Markers:            marker.NewStore(o.MarkerDir),
			Prober:             probe.New(o.ProbeTimeout),
			APIBaseURL:         o.APIBaseURL,
			ReadyTimeout:       o.ReadyTimeout,
			ProbeInterval:      o.ProbeInterval,
			ProbeAttempts:      o.ProbeAttempts,
			FailOnProbeTimeout: o.FailOnProbeTimeout,
			StopGracePeriod:    o.StopGracePeriod,
			Output:             o.Output,
		},
	}
}

// Run is the state of one test run.
type Run struct {
	id       string
	registry *registry.Registry
	bridge   *mockbridge.Bridge
	mocks    *browsermock.Table

	mu        sync.Mutex
	installed map[Browser]string
}

// New creates a run.
func New(opts Options) *Run {
	return newRun(opts.registryOptions(), mockbridge.New(opts.FakesFile))
}

// NewFromConfig creates a run with every service declared in the
// configuration file at path registered. Spawned servers print to output
// when it is not nil.
func NewFromConfig(path string, output io.Writer) (*Run, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	opts := cfg.RegistryOptions()
	opts.Orchestrator.Output = output
	run := newRun(opts, cfg.Bridge())
	for _, def := range cfg.Definitions(config.BaseDir(path)) {
		if err := run.Register(def); err != nil {
			return nil, err
		}
	}
	return run, nil
}

func newRun(opts registry.Options, bridge *mockbridge.Bridge) *Run {
	r := &Run{
		id:        uuid.NewString(),
		registry:  registry.New(opts),
		bridge:    bridge,
		mocks:     browsermock.NewTable(),
		installed: make(map[Browser]string),
	}
	logging.Debug(subsystem, "Created run %s", r.id)
	return r
}

// ID returns the unique identifier of the run.
func (r *Run) ID() string { return r.id }

// Register validates def and adds it to the run. Nothing is started.
func (r *Run) Register(def *Definition) error {
	return r.registry.Register(def)
}

// Child registers an alias for path below the service called parent.
func (r *Run) Child(parent, path, name string) (*Definition, error) {
	def, ok := r.registry.Lookup(parent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", registry.ErrUnknownService, parent)
	}
	child := def.Child(path, name)
	if err := r.registry.Register(child); err != nil {
		return nil, err
	}
	return child, nil
}

// URL returns the URL of the named service, the default one for "".
func (r *Run) URL(name string) (string, error) {
	return r.registry.Resolve(name)
}

// Start starts every registered service. Only the first call does work.
func (r *Run) Start(ctx context.Context) error {
	return r.registry.StartAll(ctx)
}

// Services reports every orchestrated service, in registration order.
func (r *Run) Services() []Status {
	orchs := r.registry.Orchestrators()
	statuses := make([]Status, 0, len(orchs))
	for _, o := range orchs {
		statuses = append(statuses, statusOf(o))
	}
	return statuses
}

// FakeBackend replaces the fakes seen by backend processes reading the
// shared fakes file.
func (r *Run) FakeBackend(rules *RuleSet) error {
	return r.bridge.Fake(rules)
}

// Bridge returns the run's mock bridge.
func (r *Run) Bridge() *mockbridge.Bridge { return r.bridge }

// MockBrowser answers browser requests matching pattern with rule on the
// next and every later Navigate.
func (r *Run) MockBrowser(pattern string, rule Rule) {
	r.mocks.Add(pattern, rule)
}

// Navigate starts the services if needed, installs the browser mocks and
// opens path on the named service.
func (r *Run) Navigate(ctx context.Context, browser Browser, name, path string) error {
	if err := r.Start(ctx); err != nil {
		return err
	}

	base, err := r.URL(name)
	if err != nil {
		return err
	}

	if err := r.installMocks(ctx, browser); err != nil {
		return err
	}

	target := service.JoinURL(base, path)
	logging.Debug(subsystem, "Run %s navigating to %s", r.id, target)
	return browser.Goto(ctx, target)
}

// installMocks adds the interceptor script unless browser already has the
// same one. A newer script wraps the older ones, so its mocks win.
func (r *Run) installMocks(ctx context.Context, browser Browser) error {
	if r.mocks.Len() == 0 {
		return nil
	}
	script, err := browsermock.Generate(r.mocks)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed[browser] == script {
		return nil
	}
	if err := browser.AddInitScript(ctx, script); err != nil {
		return fmt.Errorf("failed to install browser mocks: %w", err)
	}
	r.installed[browser] = script
	return nil
}

// Stop stops every service this run started and discards the services.
// Backend fakes and browser mocks are kept.
func (r *Run) Stop(ctx context.Context) error {
	return r.registry.Reset(ctx)
}

// Teardown stops every service this run started, clears the backend fakes
// and forgets the browser mocks. The run cannot be used afterwards.
func (r *Run) Teardown(ctx context.Context) error {
	var errs []error
	if err := r.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := r.bridge.ClearFakes(); err != nil {
		errs = append(errs, err)
	}
	r.mocks.Reset()

	r.mu.Lock()
	r.installed = make(map[Browser]string)
	r.mu.Unlock()

	logging.Debug(subsystem, "Run %s torn down", r.id)
	return errors.Join(errs...)
}
