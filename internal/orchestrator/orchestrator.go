package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/TestFlowLabs/bridge/internal/marker"
	"github.com/TestFlowLabs/bridge/internal/probe"
	"github.com/TestFlowLabs/bridge/internal/service"
	"github.com/TestFlowLabs/bridge/pkg/logging"
)

const subsystem = "Orchestrator"

const (
	DefaultReadyTimeout    = 60 * time.Second
	DefaultProbeInterval   = 500 * time.Millisecond
	DefaultProbeAttempts   = 30
	DefaultStopGracePeriod = 5 * time.Second
)

// Options tunes how an Orchestrator starts and stops its service. The zero
// value is usable; unset fields take the package defaults.
type Options struct {
	// Markers records which directory owns which port. Defaults to the
	// shared store in marker.DefaultDir().
	Markers *marker.Store

	// Prober checks ports and URLs. Defaults to probe.New(probe.DefaultTimeout).
	Prober probe.Prober

	// APIBaseURL is injected into the child environment under APIEnvVars.
	// Nothing is injected when empty.
	APIBaseURL string

	// ReadyTimeout bounds the wait for the ready pattern.
	ReadyTimeout time.Duration

	ProbeInterval time.Duration
	ProbeAttempts int

	// FailOnProbeTimeout turns an unanswered HTTP probe into a start failure
	// instead of a warning.
	FailOnProbeTimeout bool

	// StopGracePeriod is how long Stop waits after SIGTERM before SIGKILL.
	StopGracePeriod time.Duration

	// Environ supplies the parent environment. Defaults to os.Environ.
	Environ func() []string

	// Output, when set, receives a copy of everything the child prints.
	Output io.Writer
}

func (o Options) withDefaults() Options {
	if o.Markers == nil {
		o.Markers = marker.NewStore("")
	}
	if o.Prober == nil {
		o.Prober = probe.New(probe.DefaultTimeout)
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = DefaultReadyTimeout
	}
	if o.ProbeInterval <= 0 {
		o.ProbeInterval = DefaultProbeInterval
	}
	if o.ProbeAttempts <= 0 {
		o.ProbeAttempts = DefaultProbeAttempts
	}
	if o.StopGracePeriod <= 0 {
		o.StopGracePeriod = DefaultStopGracePeriod
	}
	if o.Environ == nil {
		o.Environ = os.Environ
	}
	return o
}

// Orchestrator owns the lifecycle of one service definition: it decides
// whether an existing server can be reused, spawns the command otherwise and
// stops only what it started.
type Orchestrator struct {
	def  *service.Definition
	opts Options

	mu      sync.Mutex
	state   State
	proc    *process
	port    int
	cwd     string
	lastErr error
}

type process struct {
	cmd     *exec.Cmd
	output  *outputCapture
	exited  chan struct{}
	waitErr error
}

func (p *process) pid() int {
	return p.cmd.Process.Pid
}

func (p *process) hasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// New creates an orchestrator for def.
func New(def *service.Definition, opts Options) *Orchestrator {
	return &Orchestrator{
		def:   def,
		opts:  opts.withDefaults(),
		state: NotStarted,
	}
}

// Definition returns the orchestrated service definition.
func (o *Orchestrator) Definition() *service.Definition { return o.def }

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the error of the last failed Start, if any.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// PID returns the pid of the owned child, or 0 when nothing was spawned.
func (o *Orchestrator) PID() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.proc == nil {
		return 0
	}
	return o.proc.pid()
}

// Output returns what the owned child has printed so far.
func (o *Orchestrator) Output() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.proc == nil {
		return ""
	}
	return o.proc.output.String()
}

// Start makes the service available. It returns immediately when the service
// is already Ready or being reused, and blocks until the spawned command is
// ready or has failed otherwise.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case Ready, Reusing:
		return nil
	}

	o.def.Freeze()
	name := o.def.Name()

	if !o.def.Managed() {
		logging.Debug(subsystem, "Service %s has no command, assuming it is managed externally", name)
		o.state = Ready
		return nil
	}

	port, err := o.def.Port()
	if err != nil {
		return o.fail(fmt.Errorf("service %q: %w", name, err))
	}
	host, err := o.def.Host()
	if err != nil {
		return o.fail(fmt.Errorf("service %q: %w", name, err))
	}
	cwd := marker.Canonical(o.def.Cwd())
	o.port, o.cwd = port, cwd

	outcome, rec, err := o.opts.Markers.Verify(port, cwd)
	if err != nil {
		return o.fail(fmt.Errorf("service %q: failed to verify port %d: %w", name, port, err))
	}

	switch outcome {
	case marker.Match:
		logging.Info(subsystem, "Reusing %s on port %d (pid %d, started %s)", name, port, rec.PID, rec.StartedAt.Format(time.RFC3339))
		o.state = Reusing
		return nil
	case marker.Mismatch:
		return o.fail(o.conflict(ConflictForeignApp, port, rec.Cwd))
	}

	if o.opts.Prober.Listening(ctx, host, port) {
		if outcome == marker.Stale {
			return o.fail(o.conflict(ConflictReclaimed, port, ""))
		}
		if o.def.TrustsExisting() {
			logging.Info(subsystem, "Reusing unverified server for %s on port %d", name, port)
			o.state = Reusing
			return nil
		}
		return o.fail(o.conflict(ConflictUnverified, port, ""))
	}

	o.state = Starting
	logging.Info(subsystem, "Starting %s: %s (in %s)", name, o.def.Command(), cwd)

	proc, err := o.spawn(cwd)
	if err != nil {
		return o.fail(&ReadinessError{
			Reason:  ReasonSpawn,
			Service: name,
			Command: o.def.Command(),
			Err:     err,
		})
	}

	if err := o.awaitReady(ctx, proc); err != nil {
		o.terminate(context.Background(), proc)
		return o.fail(err)
	}

	if err := o.opts.Markers.Write(port, cwd, o.def.Command(), proc.pid()); err != nil {
		o.terminate(context.Background(), proc)
		return o.fail(fmt.Errorf("service %q: %w", name, err))
	}

	o.proc = proc
	o.state = Ready
	o.lastErr = nil
	logging.Info(subsystem, "Service %s is ready at %s (pid %d)", name, o.def.URL(), proc.pid())
	return nil
}

// Stop terminates the owned child and removes its marker. A reused server is
// left alone. Stop is idempotent.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case Reusing:
		logging.Debug(subsystem, "Leaving reused server for %s running", o.def.Name())
		return nil
	case NotStarted, Stopped:
		return nil
	}

	proc := o.proc
	o.proc = nil
	o.state = Stopped
	if proc == nil {
		return nil
	}

	o.releaseMarker(proc.pid())
	logging.Info(subsystem, "Stopping %s (pid %d)", o.def.Name(), proc.pid())
	return o.terminate(ctx, proc)
}

func (o *Orchestrator) fail(err error) error {
	o.state = Failed
	o.lastErr = err
	logging.Error(subsystem, err, "Service %s failed to start", o.def.Name())
	return err
}

func (o *Orchestrator) conflict(kind ConflictKind, port int, recordedCwd string) error {
	return &PortConflictError{
		Kind:        kind,
		Service:     o.def.Name(),
		Port:        port,
		URL:         o.def.URL(),
		Cwd:         o.cwd,
		RecordedCwd: recordedCwd,
	}
}

func (o *Orchestrator) spawn(cwd string) (*process, error) {
	cmd := shellCommand(o.def.Command())
	cmd.Dir = cwd
	cmd.Env = buildEnv(o.opts.Environ(), o.opts.APIBaseURL, o.def)
	configureProcAttr(cmd)
	// Descendants may keep the output pipe open after the shell exits.
	cmd.WaitDelay = o.opts.StopGracePeriod

	output := newOutputCapture(o.def.ReadyPattern(), 0, o.opts.Output)
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	proc := &process{
		cmd:    cmd,
		output: output,
		exited: make(chan struct{}),
	}
	go func() {
		proc.waitErr = cmd.Wait()
		close(proc.exited)
	}()
	return proc, nil
}

// awaitReady waits for the ready pattern, then polls the service URL.
func (o *Orchestrator) awaitReady(ctx context.Context, proc *process) error {
	readyCtx, cancel := context.WithTimeout(ctx, o.opts.ReadyTimeout)
	defer cancel()

	select {
	case <-proc.output.matched:
	case <-proc.exited:
		// Wait returns only after the output was copied, so a match that
		// raced the exit is already recorded.
		if !proc.output.Matched() {
			return o.readinessError(ReasonExited, proc, proc.waitErr)
		}
	case <-readyCtx.Done():
		if !proc.output.Matched() {
			reason := ReasonNotReady
			if proc.hasExited() {
				reason = ReasonExited
			}
			return o.readinessError(reason, proc, fmt.Errorf("no output matched %q within %s: %w",
				o.def.ReadyPattern().String(), o.opts.ReadyTimeout, readyCtx.Err()))
		}
	}

	logging.Debug(subsystem, "Service %s printed its ready pattern", o.def.Name())
	return o.probeHTTP(ctx, proc)
}

func (o *Orchestrator) probeHTTP(ctx context.Context, proc *process) error {
	url := o.def.URL()
	reachable := false
	for attempt := 1; attempt <= o.opts.ProbeAttempts; attempt++ {
		if o.opts.Prober.Reachable(ctx, url) {
			reachable = true
			break
		}
		if attempt == o.opts.ProbeAttempts {
			break
		}
		if err := sleep(ctx, o.opts.ProbeInterval); err != nil {
			return o.readinessError(ReasonNotReady, proc, err)
		}
	}

	if !reachable {
		if o.opts.FailOnProbeTimeout {
			return o.readinessError(ReasonUnreachable, proc,
				fmt.Errorf("%s did not answer after %d attempts", url, o.opts.ProbeAttempts))
		}
		logging.Warn(subsystem, "Service %s did not answer at %s after %d attempts, continuing anyway",
			o.def.Name(), url, o.opts.ProbeAttempts)
		return nil
	}

	// The first request triggers on-demand compilation in most dev servers.
	if root, err := o.def.RootURL(); err == nil {
		if _, err := o.opts.Prober.Fetch(ctx, root); err != nil {
			logging.Debug(subsystem, "Warm-up request to %s failed: %v", root, err)
		}
	}

	if delay := o.def.WarmupDelay(); delay > 0 {
		logging.Debug(subsystem, "Waiting %s for %s to warm up", delay, o.def.Name())
		if err := sleep(ctx, delay); err != nil {
			return o.readinessError(ReasonNotReady, proc, err)
		}
	}
	return nil
}

func (o *Orchestrator) readinessError(reason ReadinessReason, proc *process, err error) error {
	return &ReadinessError{
		Reason:  reason,
		Service: o.def.Name(),
		Command: o.def.Command(),
		Output:  proc.output.String(),
		Err:     err,
	}
}

// releaseMarker deletes the port's marker if it still names pid.
func (o *Orchestrator) releaseMarker(pid int) {
	rec, err := o.opts.Markers.Read(o.port)
	if err != nil {
		logging.Warn(subsystem, "Failed to read marker for port %d: %v", o.port, err)
		return
	}
	if rec == nil || rec.PID != pid {
		return
	}
	if err := o.opts.Markers.Delete(o.port); err != nil {
		logging.Warn(subsystem, "Failed to delete marker for port %d: %v", o.port, err)
	}
}

// Process group signalling, replaced in tests.
var (
	signalInterrupt = interruptProcessGroup
	signalKill      = killProcessGroup
)

// terminate sends SIGTERM to the process group and escalates to SIGKILL
// after the grace period or when ctx ends. A leader that was already reaped
// is not signalled: its pid may belong to another process by now.
func (o *Orchestrator) terminate(ctx context.Context, proc *process) error {
	pid := proc.pid()
	if proc.hasExited() {
		logging.Debug(subsystem, "Process %d already exited, not signalling its group", pid)
		return nil
	}

	if err := signalInterrupt(pid); err != nil {
		logging.Debug(subsystem, "Failed to interrupt process group %d: %v", pid, err)
	}

	timer := time.NewTimer(o.opts.StopGracePeriod)
	defer timer.Stop()

	select {
	case <-proc.exited:
		// Ensure any remaining child processes are killed
		_ = signalKill(pid)
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	logging.Warn(subsystem, "Process group %d did not exit within %s, killing it", pid, o.opts.StopGracePeriod)
	if err := signalKill(pid); err != nil && !proc.hasExited() {
		return err
	}

	select {
	case <-proc.exited:
	case <-time.After(o.opts.StopGracePeriod):
		return fmt.Errorf("process %d did not exit after SIGKILL", pid)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
