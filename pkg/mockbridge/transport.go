package mockbridge

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/TestFlowLabs/bridge/pkg/logging"
)

// FakeHeader is set on every faked response to the pattern that produced it.
const FakeHeader = "X-Bridge-Fake"

// Transport is an http.RoundTripper that answers requests matching a rule
// from Source and passes everything else to Base.
type Transport struct {
	Source Source
	// Base defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source != nil {
		if entry, ok := t.Source.Rules().Find(req.URL.String()); ok {
			if req.Body != nil {
				req.Body.Close()
			}
			return fakeResponse(req, entry)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func fakeResponse(req *http.Request, entry Entry) (*http.Response, error) {
	body, isJSON, err := entry.Rule.EncodeBody()
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(entry.Rule.Headers)+2)
	for k, v := range entry.Rule.Headers {
		header.Set(k, v)
	}
	if isJSON && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	header.Set(FakeHeader, entry.Pattern)

	status := entry.Rule.StatusCode()
	logging.Debug(subsystem, "Faked %s %s with %d (pattern %s)", req.Method, req.URL, status, entry.Pattern)

	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}
