package marker

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a store whose liveness check consults livePIDs.
func newTestStore(t *testing.T, livePIDs ...int) *Store {
	t.Helper()
	s := NewStore(t.TempDir())
	live := make(map[int]bool, len(livePIDs))
	for _, pid := range livePIDs {
		live[pid] = true
	}
	s.alive = func(pid int) bool { return live[pid] }
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s
}

func TestNewStore_DefaultDir(t *testing.T) {
	t.Setenv(DirEnvVar, "/custom/markers")
	assert.Equal(t, "/custom/markers", NewStore("").Dir())

	t.Setenv(DirEnvVar, "")
	assert.Equal(t, filepath.Join(os.TempDir(), "bridge", "markers"), NewStore("").Dir())
}

func TestStore_WriteRead(t *testing.T) {
	s := newTestStore(t)
	cwd := t.TempDir()

	require.NoError(t, s.Write(5173, cwd, "npm run dev", 4242))

	rec, err := s.Read(5173)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 5173, rec.Port)
	assert.Equal(t, Canonical(cwd), rec.Cwd)
	assert.Equal(t, "npm run dev", rec.Command)
	assert.Equal(t, 4242, rec.PID)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), rec.StartedAt)

	data, err := os.ReadFile(s.Path(5173))
	require.NoError(t, err)
	for _, key := range []string{`"port"`, `"cwd"`, `"command"`, `"pid"`, `"started_at"`} {
		assert.Contains(t, string(data), key)
	}
}

func TestStore_WriteOverwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write(3000, "/a", "first", 1))
	require.NoError(t, s.Write(3000, "/b", "second", 2))

	rec, err := s.Read(3000)
	require.NoError(t, err)
	assert.Equal(t, "second", rec.Command)
	assert.Equal(t, 2, rec.PID)
}

func TestStore_ReadAbsent(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.Read(1234)
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_ReadCorruptDeletes(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
	require.NoError(t, os.WriteFile(s.Path(8080), []byte("{not json"), 0o644))

	rec, err := s.Read(8080)
	assert.NoError(t, err)
	assert.Nil(t, rec)

	_, statErr := os.Stat(s.Path(8080))
	assert.True(t, os.IsNotExist(statErr), "corrupt marker should be removed")
}

func TestStore_Verify(t *testing.T) {
	cwd := t.TempDir()
	other := t.TempDir()

	t.Run("none without a marker", func(t *testing.T) {
		s := newTestStore(t)
		outcome, rec, err := s.Verify(4000, cwd)
		require.NoError(t, err)
		assert.Equal(t, None, outcome)
		assert.Nil(t, rec)
	})

	t.Run("match with same cwd and live pid", func(t *testing.T) {
		s := newTestStore(t, 100)
		require.NoError(t, s.Write(4000, cwd, "npm run dev", 100))

		outcome, rec, err := s.Verify(4000, cwd)
		require.NoError(t, err)
		assert.Equal(t, Match, outcome)
		assert.Equal(t, 100, rec.PID)
	})

	t.Run("stale with same cwd and dead pid removes the marker", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Write(4000, cwd, "npm run dev", 100))

		outcome, _, err := s.Verify(4000, cwd)
		require.NoError(t, err)
		assert.Equal(t, Stale, outcome)

		rec, err := s.Read(4000)
		require.NoError(t, err)
		assert.Nil(t, rec, "stale marker should be gone")

		outcome, _, err = s.Verify(4000, cwd)
		require.NoError(t, err)
		assert.Equal(t, None, outcome)
	})

	t.Run("mismatch with another cwd leaves the marker", func(t *testing.T) {
		s := newTestStore(t, 100)
		require.NoError(t, s.Write(4000, other, "npm run dev", 100))

		outcome, rec, err := s.Verify(4000, cwd)
		require.NoError(t, err)
		assert.Equal(t, Mismatch, outcome)
		assert.Equal(t, Canonical(other), rec.Cwd)

		still, err := s.Read(4000)
		require.NoError(t, err)
		assert.NotNil(t, still)
	})

	t.Run("mismatch wins over a dead pid", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Write(4000, other, "npm run dev", 100))

		outcome, _, err := s.Verify(4000, cwd)
		require.NoError(t, err)
		assert.Equal(t, Mismatch, outcome)
	})

	t.Run("cwd comparison is canonical", func(t *testing.T) {
		s := newTestStore(t, 100)
		require.NoError(t, s.Write(4000, cwd, "npm run dev", 100))

		outcome, _, err := s.Verify(4000, filepath.Join(cwd, "sub", ".."))
		require.NoError(t, err)
		assert.Equal(t, Match, outcome)
	})
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete(9999))

	require.NoError(t, s.Write(9999, "/x", "cmd", 1))
	assert.NoError(t, s.Delete(9999))
	assert.NoError(t, s.Delete(9999))

	rec, err := s.Read(9999)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_ListAndPrune(t *testing.T) {
	s := newTestStore(t, 11)
	require.NoError(t, s.Write(5000, "/a", "a", 11))
	require.NoError(t, s.Write(3000, "/b", "b", 22))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "unrelated.txt"), []byte("x"), 0o644))

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3000, records[0].Port)
	assert.Equal(t, 5000, records[1].Port)

	pruned, err := s.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	records, err = s.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 5000, records[0].Port)
}

func TestStore_ListMissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "never-created"))
	records, err := s.List()
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestProcessAlive(t *testing.T) {
	assert.True(t, ProcessAlive(os.Getpid()))
	assert.False(t, ProcessAlive(0))
	assert.False(t, ProcessAlive(-1))

	if runtime.GOOS == "windows" {
		t.Skip("exited child detection relies on a POSIX shell")
	}
	cmd := exec.Command("/bin/sh", "-c", "exit 0")
	require.NoError(t, cmd.Run())
	assert.False(t, ProcessAlive(cmd.Process.Pid), "reaped child should not be alive")
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "match", Match.String())
	assert.Equal(t, "stale", Stale.String())
	assert.Equal(t, "mismatch", Mismatch.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
