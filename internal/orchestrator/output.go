package orchestrator

import (
	"bytes"
	"io"
	"regexp"
	"sync"
)

// defaultMaxOutput bounds how much child output is retained for pattern
// matching and failure diagnostics.
const defaultMaxOutput = 1 << 20

// outputCapture accumulates the combined stdout/stderr of a child and closes
// matched the first time the accumulated text matches pattern.
type outputCapture struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	max     int
	pattern *regexp.Regexp
	forward io.Writer

	matched     chan struct{}
	matchedOnce sync.Once
	hasMatched  bool
	truncated   bool
}

func newOutputCapture(pattern *regexp.Regexp, max int, forward io.Writer) *outputCapture {
	if max <= 0 {
		max = defaultMaxOutput
	}
	return &outputCapture{
		max:     max,
		pattern: pattern,
		forward: forward,
		matched: make(chan struct{}),
	}
}

// Write implements io.Writer. exec.Cmd serializes calls when the same writer
// is used for stdout and stderr.
func (c *outputCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	c.buf.Write(p)
	if over := c.buf.Len() - c.max; over > 0 {
		c.buf.Next(over)
		c.truncated = true
	}
	check := !c.hasMatched && c.pattern != nil
	if check && c.pattern.Match(c.buf.Bytes()) {
		c.hasMatched = true
	}
	matchedNow := c.hasMatched
	c.mu.Unlock()

	if matchedNow {
		c.matchedOnce.Do(func() { close(c.matched) })
	}
	if c.forward != nil {
		c.forward.Write(p)
	}
	return len(p), nil
}

// Matched reports whether the readiness pattern has been seen.
func (c *outputCapture) Matched() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMatched
}

// String returns the retained output.
func (c *outputCapture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.truncated {
		return "[earlier output truncated]\n" + c.buf.String()
	}
	return c.buf.String()
}
