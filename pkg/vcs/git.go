package vcs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ShellClient implements Client by shelling out to the git command.
type ShellClient struct {
	repoDir string
}

var _ Client = (*ShellClient)(nil)

// NewShellClient creates a git client operating on the given working tree.
func NewShellClient(repoDir string) *ShellClient {
	return &ShellClient{repoDir: repoDir}
}

// PullRebase fast-forwards the local tree to upstream, rebasing any local
// commits on top.
func (c *ShellClient) PullRebase(ctx context.Context) error {
	if _, err := c.run(ctx, "pull", "--rebase"); err != nil {
		return fmt.Errorf("git pull --rebase failed: %w", err)
	}
	return nil
}

// Status returns the set of paths modified relative to HEAD.
func (c *ShellClient) Status(ctx context.Context) ([]FileStatus, error) {
	out, err := c.output(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}
	return parsePorcelain(string(out)), nil
}

// AddAll stages every change in the working tree.
func (c *ShellClient) AddAll(ctx context.Context) error {
	if _, err := c.run(ctx, "add", "--all"); err != nil {
		return fmt.Errorf("git add failed: %w", err)
	}
	return nil
}

// Commit records staged changes. When there is nothing to commit, it
// returns (false, nil) rather than an error: periodic syncs frequently find
// an unchanged upstream, and that run should still succeed.
func (c *ShellClient) Commit(ctx context.Context, message string) (bool, error) {
	if message == "" {
		return false, fmt.Errorf("commit message is required")
	}

	statuses, err := c.Status(ctx)
	if err != nil {
		return false, err
	}
	if len(statuses) == 0 {
		return false, nil
	}

	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return false, fmt.Errorf("git commit failed: %w", err)
	}
	return true, nil
}

// Push publishes local commits to upstream.
func (c *ShellClient) Push(ctx context.Context) error {
	if _, err := c.run(ctx, "push"); err != nil {
		return fmt.Errorf("git push failed: %w", err)
	}
	return nil
}

// run executes a git command and returns an error carrying combined output.
func (c *ShellClient) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.repoDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// output executes a git command and returns stdout only.
func (c *ShellClient) output(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.repoDir

	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parsePorcelain parses `git status --porcelain` output.
//
// Each entry is "XY path" where X is the staged status and Y the unstaged
// one. The listing is newline-terminated; blank lines are skipped so a
// trailing newline never counts as a changed path.
func parsePorcelain(out string) []FileStatus {
	var statuses []FileStatus

	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}

		path := strings.TrimSpace(line[3:])
		// Rename entries read "R  old -> new"; the current path is what
		// matters for change summaries.
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		path = strings.Trim(path, `"`)

		statuses = append(statuses, FileStatus{
			Path:     path,
			Staged:   StatusCode(line[0:1]),
			Unstaged: StatusCode(line[1:2]),
		})
	}

	return statuses
}
