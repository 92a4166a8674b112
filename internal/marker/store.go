package marker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/TestFlowLabs/bridge/internal/atomicfile"
	"github.com/TestFlowLabs/bridge/pkg/logging"
)

const subsystem = "MarkerStore"

// DirEnvVar overrides the default marker directory.
const DirEnvVar = "BRIDGE_MARKER_DIR"

var markerFilePattern = regexp.MustCompile(`^port-(\d+)\.json$`)

// DefaultDir returns the shared marker directory: $BRIDGE_MARKER_DIR, or
// bridge/markers below the system temp directory.
func DefaultDir() string {
	if dir := os.Getenv(DirEnvVar); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "bridge", "markers")
}

// Store persists one Record per port as a JSON file in a directory shared by
// every test run on the host. There is no locking: writes replace files
// atomically, so readers never see partial records, but two writers racing
// for the same port both believe they won.
type Store struct {
	dir   string
	alive func(pid int) bool
	now   func() time.Time
}

// NewStore returns a store rooted at dir, DefaultDir() when dir is empty.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{dir: dir, alive: ProcessAlive, now: time.Now}
}

// Dir returns the directory holding the marker files.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the marker file path for port.
func (s *Store) Path(port int) string {
	return filepath.Join(s.dir, "port-"+strconv.Itoa(port)+".json")
}

// Write records that pid, started with command in cwd, owns port. Any
// previous record for the port is replaced.
func (s *Store) Write(port int, cwd, command string, pid int) error {
	rec := Record{
		Port:      port,
		Cwd:       Canonical(cwd),
		Command:   command,
		PID:       pid,
		StartedAt: s.now().UTC(),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode marker for port %d: %w", port, err)
	}

	if err := atomicfile.WriteFile(s.Path(port), data, 0o644); err != nil {
		return fmt.Errorf("failed to write marker for port %d: %w", port, err)
	}

	logging.Debug(subsystem, "Wrote marker for port %d (pid %d, cwd %s)", port, pid, rec.Cwd)
	return nil
}

// Read returns the record for port, or nil when there is none. A record that
// cannot be decoded is deleted and reported as absent.
func (s *Store) Read(port int) (*Record, error) {
	path := s.Path(port)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read marker %s: %w", path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Port != port {
		logging.Warn(subsystem, "Discarding corrupt marker %s", path)
		if rmErr := atomicfile.Remove(path); rmErr != nil {
			return nil, rmErr
		}
		return nil, nil
	}
	return &rec, nil
}

// Verify compares the marker for port with expectedCwd. A Stale marker is
// deleted before returning; the returned record is the one that was found.
func (s *Store) Verify(port int, expectedCwd string) (Outcome, *Record, error) {
	rec, err := s.Read(port)
	if err != nil {
		return None, nil, err
	}
	if rec == nil {
		return None, nil, nil
	}

	if Canonical(rec.Cwd) != Canonical(expectedCwd) {
		return Mismatch, rec, nil
	}

	if s.alive(rec.PID) {
		return Match, rec, nil
	}

	logging.Info(subsystem, "Marker for port %d is stale (pid %d no longer running)", port, rec.PID)
	if err := s.Delete(port); err != nil {
		return Stale, rec, err
	}
	return Stale, rec, nil
}

// Delete removes the marker for port. A missing marker is not an error.
func (s *Store) Delete(port int) error {
	return atomicfile.Remove(s.Path(port))
}

// List returns every readable record, ordered by port.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list markers in %s: %w", s.dir, err)
	}

	var records []Record
	for _, entry := range entries {
		m := markerFilePattern.FindStringSubmatch(entry.Name())
		if m == nil || entry.IsDir() {
			continue
		}
		port, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		rec, err := s.Read(port)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Port < records[j].Port })
	return records, nil
}

// Alive reports whether the record's pid is still running.
func (s *Store) Alive(rec Record) bool {
	return s.alive(rec.PID)
}

// Prune deletes every marker whose pid is no longer running and returns how
// many were removed.
func (s *Store) Prune() (int, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, rec := range records {
		if s.alive(rec.PID) {
			continue
		}
		if err := s.Delete(rec.Port); err != nil {
			return pruned, err
		}
		logging.Debug(subsystem, "Pruned stale marker for port %d (pid %d)", rec.Port, rec.PID)
		pruned++
	}
	return pruned, nil
}

// Canonical returns the absolute, symlink-resolved form of dir. An empty dir
// stands for the current working directory.
func Canonical(dir string) string {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
