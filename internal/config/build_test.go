package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TestFlowLabs/bridge/internal/service"
)

func TestConfig_Definitions(t *testing.T) {
	base := t.TempDir()
	cfg := GetDefaultConfig()
	cfg.Services = []ServiceConfig{
		{
			URL:          "http://localhost:5173",
			Command:      "npm run dev",
			Cwd:          "frontend",
			ReadyPattern: "ready in",
			Warmup:       Duration(time.Second),
			Env:          map[string]string{"VITE_GRAPHQL_URL": "/graphql"},
			Children:     []ChildConfig{{Name: "admin", Path: "/admin"}},
		},
		{Name: "docs", URL: "http://localhost:3001", TrustExisting: true},
		{Name: "abs", URL: "http://localhost:3002", Command: "make serve", Cwd: "/srv/app"},
		{Name: "here", URL: "http://localhost:3003", Command: "make serve"},
	}

	defs := cfg.Definitions(base)
	require.Len(t, defs, 5)

	web := defs[0]
	assert.Equal(t, service.DefaultName, web.Name())
	assert.Equal(t, filepath.Join(base, "frontend"), web.Cwd())
	assert.Equal(t, "ready in", web.ReadyPattern().String())
	assert.Equal(t, time.Second, web.WarmupDelay())
	assert.Equal(t, map[string]string{"VITE_GRAPHQL_URL": "/graphql"}, web.CustomEnv())

	admin := defs[1]
	assert.Equal(t, "admin", admin.Name())
	assert.Equal(t, "http://localhost:5173/admin", admin.URL())
	assert.Same(t, web, admin.Parent())

	assert.True(t, defs[2].TrustsExisting())
	assert.False(t, defs[2].Managed())
	assert.Equal(t, "/srv/app", defs[3].Cwd())
	assert.Equal(t, base, defs[4].Cwd())

	for _, def := range defs {
		assert.NoError(t, def.Validate())
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.APIURL = "http://api.test"
	cfg.MarkerDir = t.TempDir()
	cfg.FakesFile = filepath.Join(t.TempDir(), "fakes.json")
	cfg.Parallel = true
	cfg.Probe.FailOnTimeout = true

	opts := cfg.RegistryOptions()
	assert.True(t, opts.Parallel)
	assert.Equal(t, "http://api.test", opts.Orchestrator.APIBaseURL)
	assert.Equal(t, cfg.MarkerDir, opts.Orchestrator.Markers.Dir())
	assert.NotNil(t, opts.Orchestrator.Prober)
	assert.True(t, opts.Orchestrator.FailOnProbeTimeout)
	assert.Equal(t, cfg.ReadyTimeout.D(), opts.Orchestrator.ReadyTimeout)
	assert.Equal(t, cfg.FakesFile, cfg.Bridge().Path())
}
