package mockbridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		url     string
		want    bool
	}{
		{"https://api.example.com/*", "https://api.example.com/v1/charges", true},
		{"https://api.example.com/*", "https://api.other.com/v1/charges", false},
		{"https://api.example.com/*", "https://api.example.com/", true},
		{"https://api.example.com/v1", "https://api.example.com/v1", true},
		{"https://api.example.com/v1", "https://api.example.com/v1/charges", false},
		{"https://api.example.com/v1", "xhttps://api.example.com/v1", false},
		{"*/charges", "https://api.example.com/v1/charges", true},
		{"*/charges", "https://api.example.com/v1/charges/ch_1", false},
		{"https://*.example.com/*/charges", "https://api.example.com/v1/charges", true},
		{"https://*.example.com/*/charges", "https://api.example.org/v1/charges", false},
		{"*", "", true},
		{"*", "anything at all", true},
		{"a*a", "a", false},
		{"a*a", "aa", true},
		{"https://api.example.com/v1?x=*", "https://api.example.com/v1?x=1", true},
		{"https://api.example.com/v1.json", "https://api.example.com/v1xjson", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.url))
		})
	}
}
