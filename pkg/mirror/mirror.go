// Package mirror republishes fetched game assets to an object store.
//
// Mirroring is best effort and off by default: the fetch job is correct
// without it, and a mirror failure never rolls back the local cache.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/pkg/provider"
)

// Mirror uploads local cache files to a store under a key prefix.
type Mirror struct {
	store  provider.Store
	prefix string
	log    *zap.Logger
}

// New creates a mirror over the given store. Keys are formed as
// path.Join(prefix, name).
func New(store provider.Store, prefix string, log *zap.Logger) *Mirror {
	return &Mirror{store: store, prefix: prefix, log: log}
}

// Summary aggregates an upload pass.
type Summary struct {
	Uploaded int
	Skipped  int
	Bytes    int64
	Duration time.Duration
}

// Upload pushes the named files from dir to the store.
//
// A file whose remote size already matches is skipped; object stores
// give us no cheap content hash for multipart uploads, so size is the
// skip heuristic. The first failing upload aborts the pass.
func (m *Mirror) Upload(ctx context.Context, dir string, names []string) (*Summary, error) {
	start := time.Now()
	sum := &Summary{}

	for _, name := range names {
		local := filepath.Join(dir, name)
		st, err := os.Stat(local)
		if err != nil {
			return sum, fmt.Errorf("mirror: stat %s: %w", local, err)
		}

		key := path.Join(m.prefix, name)

		meta, err := m.store.Head(ctx, key)
		if err != nil && !provider.IsNotFound(err) {
			return sum, fmt.Errorf("mirror: head %s: %w", key, err)
		}
		if err == nil && meta.Size == st.Size() {
			m.log.Debug("mirror object up to date",
				zap.String("key", key),
				zap.Int64("size", st.Size()))
			sum.Skipped++
			continue
		}

		if err := m.put(ctx, local, key, st.Size()); err != nil {
			return sum, err
		}

		m.log.Info("mirrored asset",
			zap.String("key", key),
			zap.Int64("bytes", st.Size()))
		sum.Uploaded++
		sum.Bytes += st.Size()
	}

	sum.Duration = time.Since(start)
	return sum, nil
}

func (m *Mirror) put(ctx context.Context, local, key string, size int64) error {
	f, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("mirror: open %s: %w", local, err)
	}
	defer f.Close()

	if err := m.store.PutObject(ctx, key, f, size); err != nil {
		return fmt.Errorf("mirror: upload %s: %w", key, err)
	}
	return nil
}
