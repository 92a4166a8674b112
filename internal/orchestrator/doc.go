// Package orchestrator starts, reuses and stops the dev server behind one
// service definition.
//
// Start decides between three paths, driven by the marker store and a TCP
// probe of the service port:
//
//   - a live marker for the same working directory: reuse the running server
//   - nothing on the port: spawn the command and wait until it is ready
//   - anything else: fail with a *PortConflictError explaining what holds
//     the port
//
// Readiness has two gates. The combined output of the child must match the
// definition's ready pattern within ReadyTimeout, and the service URL is then
// polled until it answers with any HTTP status. A failed first gate returns a
// *ReadinessError carrying the command and its output.
//
// Spawned commands run in their own process group. Stop signals the whole
// group, so watchers and compilers forked by the dev server go down with it.
// A reused server is never stopped.
//
// # Environment
//
// When Options.APIBaseURL is set, the child sees it under every name in
// APIEnvVars, and each custom variable of the definition is set to the base
// URL joined with its path suffix.
package orchestrator
