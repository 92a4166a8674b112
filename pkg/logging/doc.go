// Package logging provides the structured logger shared by every bridge
// component and the bridge CLI.
//
// It is a thin layer over log/slog that tags each entry with a subsystem
// name, so output from the orchestrator, the marker store and the mock
// bridge can be told apart when several services start in one test run.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Orchestrator", "Started %s (pid %d)", name, pid)
//	logging.Debug("MarkerStore", "Wrote marker for port %d", port)
//	logging.Warn("MockBridge", "Ignoring unreadable fakes file %s", path)
//	logging.Error("Registry", err, "Failed to stop %s", name)
//
// Until InitForCLI is called, entries are written through slog.Default(),
// which keeps library use inside `go test` quiet unless -v output is wanted.
package logging
