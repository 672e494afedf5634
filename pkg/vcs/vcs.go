// Package vcs provides the git operations the update job needs: rebase-pull,
// working-tree status, stage-all, commit, and push.
//
// The Client interface exists so the update pipeline can be tested against
// fakes; ShellClient is the production implementation backed by the git
// command line.
package vcs

import "context"

// Client provides git operations against a single working tree.
type Client interface {
	// PullRebase fast-forwards the local tree to upstream, rebasing any
	// local commits on top. Fails on conflict.
	PullRebase(ctx context.Context) error

	// Status returns the set of paths modified relative to HEAD.
	Status(ctx context.Context) ([]FileStatus, error)

	// AddAll stages every change in the working tree.
	AddAll(ctx context.Context) error

	// Commit records staged changes with the given message. An empty
	// change set is a successful no-op; the returned bool reports whether
	// a revision was actually created.
	Commit(ctx context.Context, message string) (bool, error)

	// Push publishes local commits to upstream. Fails on rejection
	// (e.g. a stale ref); no retry or re-rebase is attempted.
	Push(ctx context.Context) error
}

// StatusCode classifies a single side (staged or unstaged) of a porcelain
// status entry.
type StatusCode string

const (
	StatusUnmodified StatusCode = " "
	StatusModified   StatusCode = "M"
	StatusAdded      StatusCode = "A"
	StatusDeleted    StatusCode = "D"
	StatusRenamed    StatusCode = "R"
	StatusCopied     StatusCode = "C"
	StatusUntracked  StatusCode = "?"
	StatusIgnored    StatusCode = "!"
	StatusConflict   StatusCode = "U"
)

// FileStatus is one changed path as reported by git status --porcelain.
type FileStatus struct {
	// Path is the working-tree path, relative to the repository root.
	Path string

	// Staged is the index-side status code.
	Staged StatusCode

	// Unstaged is the worktree-side status code.
	Unstaged StatusCode
}
