package orchestrator

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TestFlowLabs/bridge/internal/marker"
)

func TestTerminatePID(t *testing.T) {
	requireShell(t)

	cmd := shellCommand("exec sleep 30")
	configureProcAttr(cmd)
	require.NoError(t, cmd.Start())

	// Reap the child so it does not linger as a zombie that still looks alive.
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	pid := cmd.Process.Pid
	require.True(t, marker.ProcessAlive(pid))

	require.NoError(t, TerminatePID(context.Background(), pid, 2*time.Second))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process was not terminated")
	}
	assert.False(t, marker.ProcessAlive(pid))
}

func TestTerminatePID_NothingToDo(t *testing.T) {
	requireShell(t)
	assert.NoError(t, TerminatePID(context.Background(), 0, time.Second))

	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	require.NoError(t, cmd.Run())
	assert.NoError(t, TerminatePID(context.Background(), cmd.Process.Pid, time.Second))
}
