// Package probe answers "is this URL reachable" for readiness polling.
//
// Reachability is deliberately weaker than health: any HTTP response, 404
// and 500 included, proves a server is accepting requests on the port.
package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// DefaultTimeout bounds a single probe request.
const DefaultTimeout = 2 * time.Second

// Response is the part of an HTTP response a probe caller needs.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Prober checks and fetches URLs.
type Prober interface {
	// Reachable reports whether rawURL answered with any HTTP status.
	Reachable(ctx context.Context, rawURL string) bool
	// Fetch performs a GET and returns the response.
	Fetch(ctx context.Context, rawURL string) (*Response, error)
	// Listening reports whether something accepts TCP connections on host:port.
	Listening(ctx context.Context, host string, port int) bool
}

// HTTPProber is the net/http backed Prober.
type HTTPProber struct {
	client *http.Client
	// MaxBody caps how much of a fetched body is kept.
	MaxBody int64
}

// New creates an HTTPProber whose requests time out after timeout.
func New(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProber{
		client: &http.Client{
			Timeout: timeout,
			// Redirects still prove reachability; do not follow them off-host.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		MaxBody: 1 << 20,
	}
}

// Reachable implements Prober.
func (p *HTTPProber) Reachable(ctx context.Context, rawURL string) bool {
	resp, err := p.do(ctx, rawURL)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return true
}

// Fetch implements Prober.
func (p *HTTPProber) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := p.do(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.MaxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", rawURL, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Listening implements Prober.
func (p *HTTPProber) Listening(ctx context.Context, host string, port int) bool {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	d := net.Dialer{Timeout: p.client.Timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (p *HTTPProber) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid probe url %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", "bridge-probe")
	return p.client.Do(req)
}
