package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitCmd(t *testing.T, args ...string) {
	t.Helper()
	if out, err := exec.Command("git", args...).CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v: %s", strings.Join(args, " "), err, out)
	}
}

// setupRepos creates a bare "remote" with one commit and a clone of it,
// returning the clone's working directory.
func setupRepos(t *testing.T) (remoteDir, workDir string) {
	t.Helper()

	remoteDir = filepath.Join(t.TempDir(), "remote.git")
	seedDir := filepath.Join(t.TempDir(), "seed")

	gitCmd(t, "init", "--bare", "-b", "main", remoteDir)
	gitCmd(t, "init", "-b", "main", seedDir)
	gitCmd(t, "-C", seedDir, "config", "user.email", "test@test.com")
	gitCmd(t, "-C", seedDir, "config", "user.name", "Test")

	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "README.md"), []byte("seed\n"), 0o644))
	gitCmd(t, "-C", seedDir, "add", "README.md")
	gitCmd(t, "-C", seedDir, "commit", "-m", "seed")
	gitCmd(t, "-C", seedDir, "remote", "add", "origin", remoteDir)
	gitCmd(t, "-C", seedDir, "push", "-u", "origin", "main")

	workDir = filepath.Join(t.TempDir(), "work")
	gitCmd(t, "clone", remoteDir, workDir)
	gitCmd(t, "-C", workDir, "config", "user.email", "test@test.com")
	gitCmd(t, "-C", workDir, "config", "user.name", "Test")

	return remoteDir, workDir
}

func TestShellClient(t *testing.T) {
	ctx := context.Background()

	t.Run("status reports worktree changes", func(t *testing.T) {
		_, workDir := setupRepos(t)
		client := NewShellClient(workDir)

		statuses, err := client.Status(ctx)
		require.NoError(t, err)
		assert.Empty(t, statuses)

		require.NoError(t, os.WriteFile(filepath.Join(workDir, "new.txt"), []byte("x\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(workDir, "README.md"), []byte("changed\n"), 0o644))

		statuses, err = client.Status(ctx)
		require.NoError(t, err)
		require.Len(t, statuses, 2)

		paths := []string{statuses[0].Path, statuses[1].Path}
		assert.Contains(t, paths, "new.txt")
		assert.Contains(t, paths, "README.md")
	})

	t.Run("commit with changes creates a revision", func(t *testing.T) {
		_, workDir := setupRepos(t)
		client := NewShellClient(workDir)

		require.NoError(t, os.WriteFile(filepath.Join(workDir, "data.json"), []byte("{}\n"), 0o644))
		require.NoError(t, client.AddAll(ctx))

		committed, err := client.Commit(ctx, "2 files")
		require.NoError(t, err)
		assert.True(t, committed)

		out, err := exec.Command("git", "-C", workDir, "log", "-1", "--format=%s").Output()
		require.NoError(t, err)
		assert.Equal(t, "2 files", strings.TrimSpace(string(out)))
	})

	t.Run("commit with empty change set is a no-op", func(t *testing.T) {
		_, workDir := setupRepos(t)
		client := NewShellClient(workDir)

		before, err := exec.Command("git", "-C", workDir, "rev-parse", "HEAD").Output()
		require.NoError(t, err)

		committed, err := client.Commit(ctx, "0 files")
		require.NoError(t, err)
		assert.False(t, committed)

		after, err := exec.Command("git", "-C", workDir, "rev-parse", "HEAD").Output()
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})

	t.Run("push publishes to upstream", func(t *testing.T) {
		remoteDir, workDir := setupRepos(t)
		client := NewShellClient(workDir)

		require.NoError(t, os.WriteFile(filepath.Join(workDir, "data.json"), []byte("{}\n"), 0o644))
		require.NoError(t, client.AddAll(ctx))
		_, err := client.Commit(ctx, "1 files | data.json")
		require.NoError(t, err)

		require.NoError(t, client.Push(ctx))

		out, err := exec.Command("git", "-C", remoteDir, "log", "-1", "--format=%s").Output()
		require.NoError(t, err)
		assert.Equal(t, "1 files | data.json", strings.TrimSpace(string(out)))
	})

	t.Run("pull rebase picks up upstream commits", func(t *testing.T) {
		remoteDir, workDir := setupRepos(t)

		// Publish an upstream change through a second clone.
		otherDir := filepath.Join(t.TempDir(), "other")
		gitCmd(t, "clone", remoteDir, otherDir)
		gitCmd(t, "-C", otherDir, "config", "user.email", "test@test.com")
		gitCmd(t, "-C", otherDir, "config", "user.name", "Test")
		require.NoError(t, os.WriteFile(filepath.Join(otherDir, "upstream.txt"), []byte("up\n"), 0o644))
		gitCmd(t, "-C", otherDir, "add", "upstream.txt")
		gitCmd(t, "-C", otherDir, "commit", "-m", "upstream change")
		gitCmd(t, "-C", otherDir, "push")

		client := NewShellClient(workDir)
		require.NoError(t, client.PullRebase(ctx))

		_, err := os.Stat(filepath.Join(workDir, "upstream.txt"))
		assert.NoError(t, err)
	})
}

func TestParsePorcelain(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []FileStatus
	}{
		{
			name: "empty output",
			out:  "",
			want: nil,
		},
		{
			name: "trailing newline adds no entry",
			out:  " M c/item_123.json\n?? new.txt\n",
			want: []FileStatus{
				{Path: "c/item_123.json", Staged: StatusUnmodified, Unstaged: StatusModified},
				{Path: "new.txt", Staged: StatusUntracked, Unstaged: StatusUntracked},
			},
		},
		{
			name: "rename keeps current path",
			out:  "R  old-name.json -> c/new-name.json\n",
			want: []FileStatus{
				{Path: "c/new-name.json", Staged: StatusRenamed, Unstaged: StatusUnmodified},
			},
		},
		{
			name: "quoted path",
			out:  `?? "file with space.txt"` + "\n",
			want: []FileStatus{
				{Path: "file with space.txt", Staged: StatusUntracked, Unstaged: StatusUntracked},
			},
		},
		{
			name: "deleted file",
			out:  " D global-metadata.decrypted.dat\n",
			want: []FileStatus{
				{Path: "global-metadata.decrypted.dat", Staged: StatusUnmodified, Unstaged: StatusDeleted},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePorcelain(tt.out)
			assert.Equal(t, tt.want, got)
		})
	}
}
