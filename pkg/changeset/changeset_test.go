package changeset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/XRay205/tarkov-data/pkg/vcs"
)

func statuses(paths ...string) []vcs.FileStatus {
	out := make([]vcs.FileStatus, len(paths))
	for i, p := range paths {
		out[i] = vcs.FileStatus{Path: p, Staged: vcs.StatusUnmodified, Unstaged: vcs.StatusModified}
	}
	return out
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{
			name:  "only data paths",
			paths: []string{"c/item_123.json", "c/item_456.json"},
			want:  "2 files",
		},
		{
			name:  "mixed paths name the other files",
			paths: []string{"c/item_123.json", "README.md", "global-metadata.decrypted.dat"},
			want:  "3 files | README.md, global-metadata.decrypted.dat",
		},
		{
			name:  "only other paths",
			paths: []string{"README.md"},
			want:  "1 files | README.md",
		},
		{
			name:  "empty change set",
			paths: nil,
			want:  "0 files",
		},
		{
			name:  "other names keep duplicates and listing order",
			paths: []string{"docs/a.json", "archive/a.json", "c/item_1.json"},
			want:  "3 files | a.json, a.json",
		},
		{
			name:  "nested data paths still count as data",
			paths: []string{"c/sub/item_9.json"},
			want:  "1 files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := New(statuses(tt.paths...), nil)
			assert.Equal(t, tt.want, cs.Message())
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("partition respects custom patterns", func(t *testing.T) {
		cs := New(statuses("data/items/1.json", "c/legacy.json", "notes.md"), []string{"data/**"})

		assert.Equal(t, []string{"data/items/1.json"}, cs.Data)
		assert.Equal(t, []string{"c/legacy.json", "notes.md"}, cs.Other)
	})

	t.Run("empty", func(t *testing.T) {
		cs := New(nil, nil)
		assert.True(t, cs.Empty())
		assert.Equal(t, 0, cs.Len())
	})

	t.Run("invalid pattern never matches", func(t *testing.T) {
		cs := New(statuses("c/item.json"), []string{"[broken"})
		assert.Empty(t, cs.Data)
		assert.Equal(t, []string{"c/item.json"}, cs.Other)
	})
}
