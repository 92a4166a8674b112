package orchestrator

import (
	"sort"
	"strings"

	"github.com/TestFlowLabs/bridge/internal/service"
)

// APIEnvVars are set to the API base URL of the system under test. The
// framework-specific names win over values a dev server would otherwise read
// from its own .env files.
var APIEnvVars = []string{
	"API_URL",
	"API_BASE_URL",
	"BACKEND_URL",
	"VITE_API_URL",
	"VITE_API_BASE_URL",
	"VITE_BACKEND_URL",
	"NUXT_PUBLIC_API_BASE",
	"NUXT_PUBLIC_API_URL",
	"NEXT_PUBLIC_API_URL",
	"NEXT_PUBLIC_API_BASE_URL",
	"REACT_APP_API_URL",
	"REACT_APP_API_BASE_URL",
}

// buildEnv overlays, in order, the injected API variables and the
// definition's custom variables on top of base. Variables from base keep
// their position; new ones are appended in a stable order.
func buildEnv(base []string, apiBaseURL string, def *service.Definition) []string {
	overlay := make(map[string]string)
	if apiBaseURL != "" {
		for _, name := range APIEnvVars {
			overlay[name] = apiBaseURL
		}
		for name, suffix := range def.CustomEnv() {
			overlay[name] = service.JoinURL(apiBaseURL, suffix)
		}
	}

	env := make([]string, 0, len(base)+len(overlay))
	seen := make(map[string]bool, len(overlay))
	for _, kv := range base {
		name, _, ok := strings.Cut(kv, "=")
		if !ok {
			env = append(env, kv)
			continue
		}
		if v, override := overlay[name]; override {
			env = append(env, name+"="+v)
			seen[name] = true
			continue
		}
		env = append(env, kv)
	}

	var added []string
	for name := range overlay {
		if !seen[name] {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	for _, name := range added {
		env = append(env, name+"="+overlay[name])
	}
	return env
}
