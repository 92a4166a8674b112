// Package marker answers "who owns this port" across independent test runs
// on one host.
//
// When an orchestrator starts a dev server it writes a small JSON record,
// keyed by port, naming the working directory, command and pid. A later run
// compares that record with the directory it is about to serve from:
//
//   - Match: same directory, pid alive. The server is ours; reuse it.
//   - Stale: same directory, pid dead. The record is deleted; restart.
//   - Mismatch: different directory. Another application owns the port.
//   - None: no record. Whoever listens on the port is unverified.
//
// Records live in DefaultDir() unless a directory is given explicitly.
package marker
