package mockbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/TestFlowLabs/bridge/internal/atomicfile"
	"github.com/TestFlowLabs/bridge/pkg/logging"
)

const subsystem = "MockBridge"

// FileEnvVar overrides the shared fakes file location. Both sides of the
// bridge must agree on it.
const FileEnvVar = "BRIDGE_FAKES_FILE"

// DefaultPath returns $BRIDGE_FAKES_FILE, or bridge/fakes.json below the
// system temp directory.
func DefaultPath() string {
	if path := os.Getenv(FileEnvVar); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), "bridge", "fakes.json")
}

// Source provides the rules in effect for the next request.
type Source interface {
	Rules() *RuleSet
}

// Bridge reads and writes the shared fakes file.
type Bridge struct {
	path string
}

// New returns a bridge on path, DefaultPath() when empty.
func New(path string) *Bridge {
	if path == "" {
		path = DefaultPath()
	}
	return &Bridge{path: path}
}

// Default returns a bridge on DefaultPath().
func Default() *Bridge {
	return New("")
}

// Path returns the fakes file location.
func (b *Bridge) Path() string {
	return b.path
}

// Fake replaces the fakes file with rules.
func (b *Bridge) Fake(rules *RuleSet) error {
	if rules == nil {
		rules = NewRuleSet()
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode fakes: %w", err)
	}
	if err := atomicfile.WriteFile(b.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write fakes file %s: %w", b.path, err)
	}
	logging.Debug(subsystem, "Wrote %d fake(s) to %s", rules.Len(), b.path)
	return nil
}

// HasFakes reports whether the fakes file holds at least one rule. A file
// written from an empty set, or one that cannot be read, has none.
func (b *Bridge) HasFakes() bool {
	return b.GetFakes().Len() > 0
}

// Load reads the fakes file. A missing file yields an empty set.
func (b *Bridge) Load() (*RuleSet, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRuleSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fakes file %s: %w", b.path, err)
	}

	rules := NewRuleSet()
	if err := json.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse fakes file %s: %w", b.path, err)
	}
	return rules, nil
}

// GetFakes is Load without the error: an unreadable or corrupt file is
// logged and treated as empty, so a broken file never breaks real traffic.
func (b *Bridge) GetFakes() *RuleSet {
	rules, err := b.Load()
	if err != nil {
		logging.Warn(subsystem, "Ignoring fakes: %v", err)
		return NewRuleSet()
	}
	return rules
}

// Rules implements Source by reading the file on every call.
func (b *Bridge) Rules() *RuleSet {
	return b.GetFakes()
}

// ClearFakes removes the fakes file. It is safe to call when none exists.
func (b *Bridge) ClearFakes() error {
	if err := atomicfile.Remove(b.path); err != nil {
		return fmt.Errorf("failed to remove fakes file %s: %w", b.path, err)
	}
	return nil
}
