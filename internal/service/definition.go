package service

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultName is the name used for a definition registered without one.
const DefaultName = "default"

// DefaultReadyPattern matches the startup banners printed by the common
// frontend dev servers (Vite, Next.js, Nuxt, Create React App, Angular,
// webpack-dev-server, SvelteKit, Astro and plain Node/PHP servers).
var DefaultReadyPattern = regexp.MustCompile(`(?i)(ready in|ready on|ready -|compiled successfully|compiled client and server|webpack compiled|local:\s+https?://|listening (on|at)|server running (on|at)|started server on|development server|localhost:\d+)`)

// Definition describes one service a test run depends on: where it is
// reachable and, optionally, how to start it.
//
// Definitions are built with the fluent mutators and validated when they are
// registered. Once an orchestrator starts the service the definition is
// frozen and further mutation panics.
type Definition struct {
	rawURL        string
	name          string
	named         bool
	command       string
	cwd           string
	readyPattern  *regexp.Regexp
	patternSource string
	patternErr    error
	warmup        time.Duration
	env           map[string]string
	trustExisting bool

	parent *Definition

	frozen atomic.Bool
}

// New creates an unnamed definition for the service at rawURL.
func New(rawURL string) *Definition {
	return &Definition{rawURL: rawURL}
}

// Named creates a definition registered under name.
func Named(name, rawURL string) *Definition {
	return &Definition{rawURL: rawURL, name: name, named: true}
}

func (d *Definition) mutate() {
	if d.frozen.Load() {
		panic("service: definition " + d.Name() + " mutated after it started")
	}
}

// Serve sets the shell command that starts the service and the directory it
// runs in. An empty cwd means the test process's working directory.
func (d *Definition) Serve(command, cwd string) *Definition {
	d.mutate()
	d.command = command
	d.cwd = cwd
	return d
}

// ReadyWhen sets the pattern that the service's output must match before it
// is considered started. Compile errors surface at registration.
func (d *Definition) ReadyWhen(pattern string) *Definition {
	d.mutate()
	d.patternSource = pattern
	d.readyPattern, d.patternErr = regexp.Compile(pattern)
	return d
}

// ReadyWhenRegexp is ReadyWhen for an already compiled expression.
func (d *Definition) ReadyWhenRegexp(re *regexp.Regexp) *Definition {
	d.mutate()
	d.readyPattern = re
	d.patternErr = nil
	if re != nil {
		d.patternSource = re.String()
	}
	return d
}

// Warmup sets an extra delay applied after the service answers HTTP, giving
// on-demand compilers time to finish the first build.
func (d *Definition) Warmup(delay time.Duration) *Definition {
	d.mutate()
	d.warmup = delay
	return d
}

// Env adds custom variables to the child environment. Each value is a path
// suffix appended to the API base URL of the system under test.
func (d *Definition) Env(vars map[string]string) *Definition {
	d.mutate()
	if d.env == nil {
		d.env = make(map[string]string, len(vars))
	}
	for k, v := range vars {
		d.env[k] = v
	}
	return d
}

// TrustExistingServer allows reusing a process already listening on the port
// even when no marker proves it belongs to this working directory.
func (d *Definition) TrustExistingServer() *Definition {
	d.mutate()
	d.trustExisting = true
	return d
}

// Child returns a new definition that aliases path below this service under
// name. The alias shares the parent's process and has no command of its own.
func (d *Definition) Child(path, name string) *Definition {
	return &Definition{
		rawURL: JoinURL(d.rawURL, path),
		name:   name,
		named:  true,
		parent: d,
	}
}

// Freeze marks the definition as consumed by an orchestrator.
func (d *Definition) Freeze() {
	d.frozen.Store(true)
}

// Frozen reports whether Freeze was called.
func (d *Definition) Frozen() bool {
	return d.frozen.Load()
}

// URL returns the raw service URL.
func (d *Definition) URL() string { return d.rawURL }

// Name returns the registration name, DefaultName when none was given.
func (d *Definition) Name() string {
	if !d.named {
		return DefaultName
	}
	return d.name
}

// Command returns the spawn command; empty means externally managed.
func (d *Definition) Command() string { return d.command }

// Cwd returns the configured working directory, possibly empty or relative.
func (d *Definition) Cwd() string { return d.cwd }

// ReadyPattern returns the readiness expression, DefaultReadyPattern if unset.
func (d *Definition) ReadyPattern() *regexp.Regexp {
	if d.readyPattern == nil {
		return DefaultReadyPattern
	}
	return d.readyPattern
}

// WarmupDelay returns the configured warmup delay.
func (d *Definition) WarmupDelay() time.Duration { return d.warmup }

// CustomEnv returns a copy of the custom variable map.
func (d *Definition) CustomEnv() map[string]string {
	out := make(map[string]string, len(d.env))
	for k, v := range d.env {
		out[k] = v
	}
	return out
}

// TrustsExisting reports whether TrustExistingServer was called.
func (d *Definition) TrustsExisting() bool { return d.trustExisting }

// Parent returns the aliased definition for children created by Child.
func (d *Definition) Parent() *Definition { return d.parent }

// Managed reports whether the definition carries a spawn command.
func (d *Definition) Managed() bool { return strings.TrimSpace(d.command) != "" }

// Port returns the TCP port of the service URL, falling back to the scheme's
// well-known port.
func (d *Definition) Port() (int, error) {
	u, err := parseServiceURL(d.rawURL)
	if err != nil {
		return 0, err
	}
	return portOf(u)
}

// Host returns the host name of the service URL.
func (d *Definition) Host() (string, error) {
	u, err := parseServiceURL(d.rawURL)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}

// RootURL returns scheme://host[:port]/ of the service URL.
func (d *Definition) RootURL() (string, error) {
	u, err := parseServiceURL(d.rawURL)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String(), nil
}

// Validate reports configuration errors. It is called at registration.
func (d *Definition) Validate() error {
	var errs ValidationError
	errs.Service = d.Name()

	if d.named && strings.TrimSpace(d.name) == "" {
		errs.add("name", "must not be empty")
	}
	if u, err := parseServiceURL(d.rawURL); err != nil {
		errs.add("url", err.Error())
	} else if _, err := portOf(u); err != nil {
		errs.add("url", err.Error())
	}
	if d.patternErr != nil {
		errs.add("readyPattern", "invalid expression "+strconv.Quote(d.patternSource)+": "+d.patternErr.Error())
	}
	if d.warmup < 0 {
		errs.add("warmup", "must not be negative")
	}
	if d.parent != nil && d.Managed() {
		errs.add("command", "child services share their parent's process")
	}

	if errs.HasErrors() {
		return &errs
	}
	return nil
}

func parseServiceURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errorString("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Scheme == "" {
		return nil, errorString("url " + strconv.Quote(raw) + " has no scheme")
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, errorString("url " + strconv.Quote(raw) + " has no host")
	}
	return u, nil
}

func portOf(u *url.URL) (int, error) {
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return 0, errorString("invalid port " + strconv.Quote(p))
		}
		return port, nil
	}
	switch u.Scheme {
	case "https", "wss":
		return 443, nil
	default:
		return 80, nil
	}
}

// JoinURL appends path to base with exactly one slash between them.
func JoinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

type errorString string

func (e errorString) Error() string { return string(e) }
