package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TestFlowLabs/bridge/internal/registry"
	"github.com/TestFlowLabs/bridge/internal/service"
)

type fakeBrowser struct {
	scripts []string
	visited []string
}

func (b *fakeBrowser) AddInitScript(ctx context.Context, script string) error {
	b.scripts = append(b.scripts, script)
	return nil
}

func (b *fakeBrowser) Goto(ctx context.Context, url string) error {
	b.visited = append(b.visited, url)
	return nil
}

func newTestRun(t *testing.T) *Run {
	t.Helper()
	run := New(Options{
		MarkerDir:     t.TempDir(),
		FakesFile:     filepath.Join(t.TempDir(), "fakes.json"),
		ProbeAttempts: 1,
	})
	t.Cleanup(func() { run.Teardown(context.Background()) })
	return run
}

func TestRun_ID(t *testing.T) {
	a, b := newTestRun(t), newTestRun(t)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestRun_Navigate(t *testing.T) {
	run := newTestRun(t)
	require.NoError(t, run.Register(Service("http://127.0.0.1:9/app")))
	require.NoError(t, run.Register(NamedService("admin", "http://127.0.0.1:10")))

	browser := &fakeBrowser{}
	require.NoError(t, run.Navigate(context.Background(), browser, "", "/checkout"))
	require.NoError(t, run.Navigate(context.Background(), browser, "admin", "users"))

	assert.Equal(t, []string{"http://127.0.0.1:9/app/checkout", "http://127.0.0.1:10/users"}, browser.visited)
	assert.Empty(t, browser.scripts, "no mocks, no script")

	statuses := run.Services()
	require.Len(t, statuses, 2)
	assert.Equal(t, service.DefaultName, statuses[0].Name)
	assert.Equal(t, "ready", statuses[0].State)
	assert.False(t, statuses[0].Owned)
}

func TestRun_NavigateUnknownService(t *testing.T) {
	run := newTestRun(t)
	browser := &fakeBrowser{}

	err := run.Navigate(context.Background(), browser, "missing", "/")
	assert.True(t, errors.Is(err, registry.ErrUnknownService))
	assert.Empty(t, browser.visited)
}

func TestRun_NavigateStartFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("process tests use /bin/sh")
	}
	run := newTestRun(t)
	def := Service("http://127.0.0.1:1").Serve("echo nope; exit 2", t.TempDir()).ReadyWhen("ready")
	require.NoError(t, run.Register(def))

	browser := &fakeBrowser{}
	err := run.Navigate(context.Background(), browser, "", "/")
	require.Error(t, err)
	assert.Empty(t, browser.visited)
}

func TestRun_MockBrowser(t *testing.T) {
	run := newTestRun(t)
	require.NoError(t, run.Register(Service("http://127.0.0.1:9")))
	browser := &fakeBrowser{}

	run.MockBrowser("https://api.stripe.com/*", Rule{Status: 402})
	require.NoError(t, run.Navigate(context.Background(), browser, "", "/"))
	require.NoError(t, run.Navigate(context.Background(), browser, "", "/again"))
	require.Len(t, browser.scripts, 1, "an unchanged script is installed once")
	assert.Contains(t, browser.scripts[0], "https://api.stripe.com/*")

	run.MockBrowser("https://api.example.com/*", Rule{Body: "ok"})
	require.NoError(t, run.Navigate(context.Background(), browser, "", "/"))
	require.Len(t, browser.scripts, 2)
	assert.Contains(t, browser.scripts[1], "https://api.example.com/*")

	other := &fakeBrowser{}
	require.NoError(t, run.Navigate(context.Background(), other, "", "/"))
	assert.Len(t, other.scripts, 1)
}

func TestRun_FakeBackendAndTeardown(t *testing.T) {
	run := newTestRun(t)
	require.NoError(t, run.Register(Service("http://127.0.0.1:9")))

	rules := NewRuleSet().Add("https://api.stripe.com/*", Rule{Status: 200, Body: "charged"})
	require.NoError(t, run.FakeBackend(rules))
	assert.True(t, run.Bridge().HasFakes())
	assert.Equal(t, rules.Entries(), run.Bridge().GetFakes().Entries())

	run.MockBrowser("a/*", Rule{})

	require.NoError(t, run.Teardown(context.Background()))
	assert.False(t, run.Bridge().HasFakes())
	assert.ErrorIs(t, run.Register(NamedService("late", "http://127.0.0.1:9")), registry.ErrDiscarded)

	browser := &fakeBrowser{}
	assert.ErrorIs(t, run.Navigate(context.Background(), browser, "", "/"), registry.ErrDiscarded)
}

func TestRun_StopKeepsFakes(t *testing.T) {
	run := newTestRun(t)
	require.NoError(t, run.Register(Service("http://127.0.0.1:1")))
	require.NoError(t, run.FakeBackend(NewRuleSet().Add("*/users", Rule{Status: 201})))

	require.NoError(t, run.Stop(context.Background()))
	assert.True(t, run.Bridge().HasFakes())

	err := run.Register(NamedService("api", "http://127.0.0.1:2"))
	assert.True(t, errors.Is(err, registry.ErrDiscarded))
}

func TestRun_Child(t *testing.T) {
	run := newTestRun(t)
	require.NoError(t, run.Register(Service("http://127.0.0.1:9/")))

	child, err := run.Child("", "/admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", child.Name())

	url, err := run.URL("admin")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9/admin", url)

	_, err = run.Child("nope", "/x", "x")
	assert.ErrorIs(t, err, registry.ErrUnknownService)
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	content := fmt.Sprintf(`
markerDir: %s
fakesFile: %s
services:
  - name: docs
    url: http://127.0.0.1:9/docs
    children:
      - name: api-docs
        path: /api
`, filepath.Join(dir, "markers"), filepath.Join(dir, "fakes.json"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	run, err := NewFromConfig(path, nil)
	require.NoError(t, err)
	defer run.Teardown(context.Background())

	url, err := run.URL("api-docs")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9/docs/api", url)
	assert.Equal(t, filepath.Join(dir, "fakes.json"), run.Bridge().Path())

	_, err = NewFromConfig(writeBadConfig(t), nil)
	assert.Error(t, err)
}

func writeBadConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  - url: nope\n"), 0o644))
	return path
}
