// Package browsermock renders the init script that intercepts fetch and
// XMLHttpRequest calls in a browser page.
package browsermock

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/TestFlowLabs/bridge/pkg/mockbridge"
)

// mock is the per-pattern record handed to the script.
type mock struct {
	Pattern    string            `json:"pattern"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

var scriptTemplate = template.Must(template.New("browsermock").
	Funcs(sprig.TxtFuncMap()).
	Parse(scriptSource))

// Generate renders the interceptor script for the mocks in t. The mock data
// enters the script only as one JSON literal from mustToJson, which escapes
// <, >, &, U+2028 and U+2029 so it cannot leave a <script> element.
func Generate(t *Table) (string, error) {
	entries := t.Entries()
	mocks := make([]mock, 0, len(entries))
	for _, e := range entries {
		m, err := toMock(e)
		if err != nil {
			return "", err
		}
		mocks = append(mocks, m)
	}

	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, struct{ Mocks []mock }{mocks}); err != nil {
		return "", fmt.Errorf("failed to render browser mock script: %w", err)
	}
	return buf.String(), nil
}

func toMock(e mockbridge.Entry) (mock, error) {
	body, isJSON, err := e.Rule.EncodeBody()
	if err != nil {
		return mock{}, fmt.Errorf("mock %q: %w", e.Pattern, err)
	}

	headers := make(map[string]string, len(e.Rule.Headers)+1)
	hasContentType := false
	for k, v := range e.Rule.Headers {
		headers[k] = v
		if strings.EqualFold(k, "Content-Type") {
			hasContentType = true
		}
	}
	if isJSON && !hasContentType {
		headers["Content-Type"] = "application/json"
	}

	status := e.Rule.StatusCode()
	if status < 200 || status > 599 {
		return mock{}, fmt.Errorf("mock %q: status %d cannot be returned to a page", e.Pattern, status)
	}

	return mock{
		Pattern:    e.Pattern,
		Status:     status,
		StatusText: http.StatusText(status),
		Headers:    headers,
		Body:       string(body),
	}, nil
}

const scriptSource = `// bridge browser mocks: {{ len .Mocks }} {{ ternary "rule" "rules" (eq (len .Mocks) 1) }}
(function () {
  var mocks = {{ mustToJson .Mocks }};

  var quote = function (s) { return s.replace(/[.+?^$(){}|[\]\\\/]/g, '\\$&'); };
  var compiled = mocks.map(function (m) {
    return { mock: m, re: new RegExp('^' + m.pattern.split('*').map(quote).join('[\\s\\S]*') + '$') };
  });

  var find = function (url) {
    for (var i = 0; i < compiled.length; i++) {
      if (compiled[i].re.test(url)) return compiled[i].mock;
    }
    return null;
  };

  var resolve = function (input) {
    var raw = input && typeof input === 'object' && 'url' in input ? input.url : String(input);
    try { return new URL(raw, document.baseURI).href; } catch (e) { return raw; }
  };

  var nullBody = function (status) { return status === 204 || status === 205 || status === 304; };

  var originalFetch = window.fetch;
  if (originalFetch) {
    window.fetch = function (input, init) {
      var m = find(resolve(input));
      if (!m) return originalFetch.apply(this, arguments);
      return Promise.resolve(new Response(nullBody(m.status) ? null : m.body, {
        status: m.status,
        statusText: m.statusText,
        headers: m.headers
      }));
    };
  }

  var proto = window.XMLHttpRequest && window.XMLHttpRequest.prototype;
  if (!proto) return;

  var originalOpen = proto.open;
  var originalSend = proto.send;

  proto.open = function (method, url) {
    this.__bridgeMock = find(resolve(url));
    return originalOpen.apply(this, arguments);
  };

  proto.send = function () {
    var m = this.__bridgeMock;
    if (!m) return originalSend.apply(this, arguments);

    var xhr = this;
    var headers = {};
    Object.keys(m.headers).forEach(function (k) { headers[k.toLowerCase()] = m.headers[k]; });

    var response = m.body;
    if (xhr.responseType === 'json') {
      try { response = JSON.parse(m.body); } catch (e) { response = null; }
    }

    var define = function (name, value) {
      Object.defineProperty(xhr, name, { configurable: true, get: function () { return value; } });
    };
    define('readyState', 4);
    define('status', m.status);
    define('statusText', m.statusText);
    define('responseText', m.body);
    define('response', response);

    xhr.getResponseHeader = function (name) {
      var v = headers[String(name).toLowerCase()];
      return v === undefined ? null : v;
    };
    xhr.getAllResponseHeaders = function () {
      return Object.keys(headers).map(function (k) { return k + ': ' + headers[k]; }).join('\r\n');
    };

    setTimeout(function () {
      xhr.dispatchEvent(new Event('readystatechange'));
      xhr.dispatchEvent(new ProgressEvent('load'));
      xhr.dispatchEvent(new ProgressEvent('loadend'));
    }, 0);
  };
})();
`
