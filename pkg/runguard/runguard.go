// Package runguard provides host-local mutual exclusion for named jobs.
//
// A guard persists the pid of the process that currently holds a job name in
// a marker file. Staleness is decided purely by probing whether that pid still
// denotes a live process: there is no explicit release, and a marker left
// behind by a crashed run is reclaimed on the next acquire once its pid dies.
//
// The liveness probe is best-effort and racy. The OS may recycle a pid
// between runs, in which case an unrelated live process makes Acquire report
// ErrAlreadyRunning until that pid dies. Callers accept this window; the
// guard is advisory and host-local, not a distributed lock.
package runguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning indicates another live process holds the job name.
var ErrAlreadyRunning = errors.New("job already running")

// Guard acquires per-job leases backed by pid marker files in a directory.
type Guard struct {
	dir string
}

// Lease is the result of successfully acquiring a job name.
//
// A lease is informational: it is not released on exit. The marker it points
// at stays on disk until the next successful Acquire overwrites it.
type Lease struct {
	// Job is the acquired job name.
	Job string

	// PID is the process id recorded in the marker.
	PID int

	// Path is the marker file location.
	Path string
}

// New creates a guard that stores markers under dir.
func New(dir string) *Guard {
	return &Guard{dir: dir}
}

// Acquire claims jobName for the current process.
//
// If a marker exists and its recorded pid denotes a live process, Acquire
// fails with ErrAlreadyRunning (wrapped; test with errors.Is). A missing,
// unreadable, or stale marker is overwritten with the current pid. The
// marker's containing directory is created if needed.
func (g *Guard) Acquire(jobName string) (*Lease, error) {
	if jobName == "" {
		return nil, errors.New("job name is required")
	}

	path := g.markerPath(jobName)

	if pid, ok := readMarker(path); ok && pidAlive(pid) {
		return nil, fmt.Errorf("job %q held by pid %d: %w", jobName, pid, ErrAlreadyRunning)
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write lock marker: %w", err)
	}

	return &Lease{Job: jobName, PID: pid, Path: path}, nil
}

func (g *Guard) markerPath(jobName string) string {
	return filepath.Join(g.dir, jobName+".pid")
}

// readMarker returns the recorded pid and whether the marker was usable.
// Unreadable or malformed markers are treated as absent.
func readMarker(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

// pidAlive reports whether a process with the given pid exists.
//
// Signal 0 performs permission and existence checks without delivering a
// signal. EPERM means the process exists but belongs to another user; that
// still counts as alive. Ownership beyond existence is not verified.
func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
