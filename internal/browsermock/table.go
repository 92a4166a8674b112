package browsermock

import (
	"sync"

	"github.com/TestFlowLabs/bridge/pkg/mockbridge"
)

// Table is the ordered set of browser-side mocks for one run. Patterns use
// the same wildcard rules as mockbridge.Match.
type Table struct {
	mu    sync.Mutex
	rules *mockbridge.RuleSet
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{rules: mockbridge.NewRuleSet()}
}

// FromRuleSet copies rules into a new table.
func FromRuleSet(rules *mockbridge.RuleSet) *Table {
	t := NewTable()
	for _, e := range rules.Entries() {
		t.Add(e.Pattern, e.Rule)
	}
	return t
}

// Add registers rule for pattern. Re-adding a pattern replaces its rule but
// keeps its original position.
func (t *Table) Add(pattern string, rule mockbridge.Rule) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules.Add(pattern, rule)
	return t
}

// Len returns the number of patterns.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rules.Len()
}

// Entries returns the mocks in insertion order.
func (t *Table) Entries() []mockbridge.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rules.Entries()
}

// Reset removes every mock.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = mockbridge.NewRuleSet()
}
