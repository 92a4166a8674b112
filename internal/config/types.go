package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the content of bridge.yaml.
type Config struct {
	// APIURL is the base URL of the system under test, injected into every
	// spawned dev server.
	APIURL          string          `yaml:"apiUrl,omitempty"`
	MarkerDir       string          `yaml:"markerDir,omitempty"`
	FakesFile       string          `yaml:"fakesFile,omitempty"`
	ReadyTimeout    Duration        `yaml:"readyTimeout,omitempty"`
	Probe           ProbeConfig     `yaml:"probe,omitempty"`
	StopGracePeriod Duration        `yaml:"stopGracePeriod,omitempty"`
	Parallel        bool            `yaml:"parallel,omitempty"`
	Services        []ServiceConfig `yaml:"services,omitempty"`
}

// ProbeConfig tunes the HTTP readiness poll.
type ProbeConfig struct {
	Interval      Duration `yaml:"interval,omitempty"`
	Attempts      int      `yaml:"attempts,omitempty"`
	Timeout       Duration `yaml:"timeout,omitempty"`
	FailOnTimeout bool     `yaml:"failOnTimeout,omitempty"`
}

// ServiceConfig declares one service.
type ServiceConfig struct {
	// Name may be empty for the default service.
	Name          string            `yaml:"name,omitempty"`
	URL           string            `yaml:"url"`
	Command       string            `yaml:"command,omitempty"`
	Cwd           string            `yaml:"cwd,omitempty"`
	ReadyPattern  string            `yaml:"readyPattern,omitempty"`
	Warmup        Duration          `yaml:"warmup,omitempty"`
	Env           map[string]string `yaml:"env,omitempty"`
	TrustExisting bool              `yaml:"trustExisting,omitempty"`
	Children      []ChildConfig     `yaml:"children,omitempty"`
}

// ChildConfig aliases a sub-path of its parent service.
type ChildConfig struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML accepts duration strings and plain integers of milliseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	if value.Tag == "!!int" {
		var ms int64
		if err := value.Decode(&ms); err != nil {
			return err
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
