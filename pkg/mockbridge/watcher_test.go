package mockbridge

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Reloads(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.Fake(NewRuleSet().Add("a/*", Rule{Status: 201})))

	w := NewWatcher(b)
	var reloads atomic.Int32
	w.OnChange = func(*RuleSet) { reloads.Add(1) }

	require.NoError(t, w.Start())
	defer w.Stop()
	require.NoError(t, w.Start(), "second Start is a no-op")

	assert.Equal(t, 1, w.Rules().Len())

	require.NoError(t, b.Fake(NewRuleSet().Add("a/*", Rule{Status: 201}).Add("b/*", Rule{Status: 202})))
	assert.Eventually(t, func() bool { return w.Rules().Len() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, b.ClearFakes())
	assert.Eventually(t, func() bool { return w.Rules().Len() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Positive(t, reloads.Load())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcher_RulesAfterStopReadThrough(t *testing.T) {
	b := newTestBridge(t)
	w := NewWatcher(b)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())

	require.NoError(t, b.Fake(NewRuleSet().Add("a", Rule{})))
	assert.Equal(t, 1, w.Rules().Len())
}
