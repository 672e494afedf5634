package runguard

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deadPID returns a pid that very recently stopped existing by spawning a
// short-lived child and waiting for it. Recycling within a single test run is
// unlikely enough to keep these tests stable.
func deadPID(t *testing.T) int {
	t.Helper()

	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid
	require.NoError(t, cmd.Wait())
	return pid
}

func TestAcquire(t *testing.T) {
	t.Run("fresh directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "locks")
		g := New(dir)

		lease, err := g.Acquire("download")
		require.NoError(t, err)
		require.NotNil(t, lease)

		assert.Equal(t, "download", lease.Job)
		assert.Equal(t, os.Getpid(), lease.PID)

		data, err := os.ReadFile(lease.Path)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
	})

	t.Run("live holder is rejected", func(t *testing.T) {
		dir := t.TempDir()
		g := New(dir)

		_, err := g.Acquire("update")
		require.NoError(t, err)

		// The test process itself holds the marker and is alive.
		_, err = g.Acquire("update")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAlreadyRunning)
	})

	t.Run("stale marker is reclaimed", func(t *testing.T) {
		dir := t.TempDir()
		g := New(dir)

		path := filepath.Join(dir, "update.pid")
		require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(deadPID(t))+"\n"), 0o644))

		lease, err := g.Acquire("update")
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), lease.PID)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))
	})

	t.Run("malformed marker is overwritten", func(t *testing.T) {
		dir := t.TempDir()
		g := New(dir)

		path := filepath.Join(dir, "download.pid")
		require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0o644))

		lease, err := g.Acquire("download")
		require.NoError(t, err)
		assert.Equal(t, os.Getpid(), lease.PID)
	})

	t.Run("empty job name", func(t *testing.T) {
		g := New(t.TempDir())
		_, err := g.Acquire("")
		assert.Error(t, err)
	})

	t.Run("distinct jobs do not contend", func(t *testing.T) {
		g := New(t.TempDir())

		_, err := g.Acquire("download")
		require.NoError(t, err)

		_, err = g.Acquire("update")
		assert.NoError(t, err)
	})
}

func TestAcquireNoReleaseOnReuse(t *testing.T) {
	// There is no explicit release: a second acquire by the same (live)
	// process must fail, even though the first run has logically finished.
	g := New(t.TempDir())

	_, err := g.Acquire("download")
	require.NoError(t, err)

	_, err = g.Acquire("download")
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}
