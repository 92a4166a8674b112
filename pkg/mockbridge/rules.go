package mockbridge

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Rule is the canned response for requests matching a pattern.
type Rule struct {
	// Status defaults to 200.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`
	// Body is written verbatim when it is a string and JSON-encoded otherwise.
	Body any `json:"body,omitempty" yaml:"body,omitempty"`
	// Headers are added to the response.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// StatusCode returns Status, or 200 when unset.
func (r Rule) StatusCode() int {
	if r.Status == 0 {
		return 200
	}
	return r.Status
}

// EncodeBody renders Body and reports whether it was JSON-encoded.
func (r Rule) EncodeBody() ([]byte, bool, error) {
	switch body := r.Body.(type) {
	case nil:
		return nil, false, nil
	case string:
		return []byte(body), false, nil
	case []byte:
		return body, false, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, false, fmt.Errorf("failed to encode body: %w", err)
		}
		return data, true, nil
	}
}

// UnmarshalJSON decodes numbers in Body as json.Number so that a body read
// back from the fakes file encodes to the same bytes it was written with.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	var p plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// Entry is one pattern and its rule.
type Entry struct {
	Pattern string
	Rule    Rule
}

// RuleSet is an insertion-ordered set of rules keyed by pattern. The zero
// value is not usable; create one with NewRuleSet.
type RuleSet struct {
	m *orderedmap.OrderedMap[string, Rule]
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{m: orderedmap.New[string, Rule]()}
}

// Add stores rule under pattern. Replacing a pattern keeps its position.
func (s *RuleSet) Add(pattern string, rule Rule) *RuleSet {
	s.m.Set(pattern, rule)
	return s
}

// Get returns the rule stored under pattern.
func (s *RuleSet) Get(pattern string) (Rule, bool) {
	return s.m.Get(pattern)
}

// Len returns the number of patterns.
func (s *RuleSet) Len() int {
	if s == nil || s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Entries returns the rules in insertion order.
func (s *RuleSet) Entries() []Entry {
	entries := make([]Entry, 0, s.Len())
	if s.Len() == 0 {
		return entries
	}
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, Entry{Pattern: pair.Key, Rule: pair.Value})
	}
	return entries
}

// Find returns the first rule, in insertion order, whose pattern matches url.
func (s *RuleSet) Find(url string) (Entry, bool) {
	if s.Len() == 0 {
		return Entry{}, false
	}
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		if Match(pair.Key, url) {
			return Entry{Pattern: pair.Key, Rule: pair.Value}, true
		}
	}
	return Entry{}, false
}

// MarshalJSON writes the rules as one JSON object in insertion order.
func (s *RuleSet) MarshalJSON() ([]byte, error) {
	if s.Len() == 0 {
		return []byte("{}"), nil
	}
	return s.m.MarshalJSON()
}

// UnmarshalJSON reads a JSON object, keeping its key order.
func (s *RuleSet) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, Rule]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	s.m = m
	return nil
}

// ParseRules decodes a YAML or JSON mapping of pattern to rule, preserving
// the document order of the patterns.
func ParseRules(data []byte) (*RuleSet, error) {
	rules := NewRuleSet()
	if len(bytes.TrimSpace(data)) == 0 {
		return rules, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return rules, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rules must be a mapping of URL pattern to response, got line %d", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		var rule Rule
		if err := value.Decode(&rule); err != nil {
			return nil, fmt.Errorf("rule %q (line %d): %w", key.Value, key.Line, err)
		}
		rules.Add(key.Value, rule)
	}
	return rules, nil
}
