package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/TestFlowLabs/bridge/internal/orchestrator"
	"github.com/TestFlowLabs/bridge/internal/service"
	"github.com/TestFlowLabs/bridge/pkg/logging"
)

const subsystem = "Registry"

var (
	// ErrDiscarded is returned by every mutating call after Reset.
	ErrDiscarded = errors.New("registry has been reset; create a new one for the next run")
	// ErrUnknownService is returned by Resolve for names never registered.
	ErrUnknownService = errors.New("unknown service")
	// ErrAlreadyStarted is returned when a managed service is registered
	// after StartAll ran.
	ErrAlreadyStarted = errors.New("registry already started")
)

// Options configures a Registry.
type Options struct {
	// Orchestrator is passed to every orchestrator the registry creates.
	Orchestrator orchestrator.Options
	// Parallel starts services concurrently instead of in registration order.
	Parallel bool
}

// Registry maps service names to definitions and their orchestrators.
type Registry struct {
	opts Options

	mu        sync.Mutex
	order     []string
	defs      map[string]*service.Definition
	orchs     map[string]*orchestrator.Orchestrator
	started   bool
	discarded bool

	startOnce sync.Once
	startErr  error
}

// New creates an empty registry.
func New(opts Options) *Registry {
	return &Registry{
		opts:  opts,
		defs:  make(map[string]*service.Definition),
		orchs: make(map[string]*orchestrator.Orchestrator),
	}
}

// Register validates def and stores it with a new, unstarted orchestrator.
// Child aliases get no orchestrator of their own and require their parent
// to be registered first.
func (r *Registry) Register(def *service.Definition) error {
	if def == nil {
		return fmt.Errorf("cannot register nil service")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.discarded {
		return ErrDiscarded
	}

	name := def.Name()
	if _, exists := r.defs[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	if parent := def.Parent(); parent != nil {
		if registered, ok := r.defs[parent.Name()]; !ok || registered != parent {
			return fmt.Errorf("service %s: parent %s is not registered", name, parent.Name())
		}
	} else {
		if r.started {
			return fmt.Errorf("service %s: %w", name, ErrAlreadyStarted)
		}
		r.orchs[name] = orchestrator.New(def, r.opts.Orchestrator)
	}

	r.defs[name] = def
	r.order = append(r.order, name)
	logging.Debug(subsystem, "Registered service %s at %s", name, def.URL())
	return nil
}

// StartAll starts every registered service. Only the first call does any
// work; later calls return its result.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	if r.discarded {
		r.mu.Unlock()
		return ErrDiscarded
	}
	r.started = true
	orchs := r.orchestratorsLocked()
	r.mu.Unlock()

	r.startOnce.Do(func() {
		r.startErr = r.startAll(ctx, orchs)
	})
	return r.startErr
}

func (r *Registry) startAll(ctx context.Context, orchs []*orchestrator.Orchestrator) error {
	if len(orchs) == 0 {
		return nil
	}
	logging.Info(subsystem, "Starting %d service(s)", len(orchs))

	if !r.opts.Parallel {
		for _, o := range orchs {
			if err := o.Start(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, o := range orchs {
		o := o
		g.Go(func() error {
			return o.Start(gctx)
		})
	}
	return g.Wait()
}

// Resolve returns the URL of the named service; an empty name means the
// default service.
func (r *Registry) Resolve(name string) (string, error) {
	if name == "" {
		name = service.DefaultName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.defs[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	return def.URL(), nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*service.Definition, bool) {
	if name == "" {
		name = service.DefaultName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.defs[name]
	return def, ok
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []*service.Definition {
	r.mu.Lock()
	defer r.mu.Unlock()

	defs := make([]*service.Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.defs[name])
	}
	return defs
}

// Orchestrators returns the orchestrators in registration order.
func (r *Registry) Orchestrators() []*orchestrator.Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orchestratorsLocked()
}

func (r *Registry) orchestratorsLocked() []*orchestrator.Orchestrator {
	orchs := make([]*orchestrator.Orchestrator, 0, len(r.orchs))
	for _, name := range r.order {
		if o, ok := r.orchs[name]; ok {
			orchs = append(orchs, o)
		}
	}
	return orchs
}

// Reset stops every orchestrator and discards the registry. Stop errors are
// joined; every orchestrator is attempted regardless.
func (r *Registry) Reset(ctx context.Context) error {
	r.mu.Lock()
	if r.discarded {
		r.mu.Unlock()
		return nil
	}
	r.discarded = true
	orchs := r.orchestratorsLocked()
	r.mu.Unlock()

	var errs []error
	for i := len(orchs) - 1; i >= 0; i-- {
		if err := orchs[i].Stop(ctx); err != nil {
			logging.Warn(subsystem, "Failed to stop %s: %v", orchs[i].Definition().Name(), err)
			errs = append(errs, err)
		}
	}
	logging.Debug(subsystem, "Registry reset, %d service(s) stopped", len(orchs))
	return errors.Join(errs...)
}
