// Package changeset models the set of working-tree paths modified since the
// last committed revision and synthesizes the one-line commit message the
// update job publishes with.
//
// Paths are partitioned into a "data" subset (item dumps under a
// conventional prefix, by default c/) and an "other" subset; the commit
// message names the total count and, when present, the other files. It is a
// best-effort human summary, not a semantic diff.
package changeset

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/XRay205/tarkov-data/pkg/vcs"
)

// DefaultDataPatterns matches the conventional item-data directory.
var DefaultDataPatterns = []string{"c/**"}

// ChangeSet is a partitioned view of changed paths, in status order.
type ChangeSet struct {
	// Data holds paths matching one of the data patterns.
	Data []string

	// Other holds every remaining path.
	Other []string
}

// New partitions statuses into data and other paths using doublestar glob
// patterns. Nil or empty patterns fall back to DefaultDataPatterns. Order
// follows the status listing.
func New(statuses []vcs.FileStatus, dataPatterns []string) *ChangeSet {
	if len(dataPatterns) == 0 {
		dataPatterns = DefaultDataPatterns
	}

	cs := &ChangeSet{}
	for _, st := range statuses {
		if matchesAny(dataPatterns, st.Path) {
			cs.Data = append(cs.Data, st.Path)
		} else {
			cs.Other = append(cs.Other, st.Path)
		}
	}
	return cs
}

// Len returns the total count of changed paths.
func (cs *ChangeSet) Len() int {
	return len(cs.Data) + len(cs.Other)
}

// Empty reports whether nothing changed.
func (cs *ChangeSet) Empty() bool {
	return cs.Len() == 0
}

// Message synthesizes the commit message.
//
// The format is "<N> files" when only data paths changed, otherwise
// "<N> files | <other file names>" with the other paths reduced to their
// base names and joined with ", " in listing order, duplicates kept.
func (cs *ChangeSet) Message() string {
	if len(cs.Other) == 0 {
		return fmt.Sprintf("%d files", cs.Len())
	}

	names := make([]string, len(cs.Other))
	for i, p := range cs.Other {
		names[i] = path.Base(p)
	}
	return fmt.Sprintf("%d files | %s", cs.Len(), strings.Join(names, ", "))
}

// matchesAny reports whether p matches any of the glob patterns. Invalid
// patterns never match.
func matchesAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}
