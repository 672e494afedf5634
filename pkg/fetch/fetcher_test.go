package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XRay205/tarkov-data/pkg/manifest"
)

func testManifest() *manifest.Manifest {
	return &manifest.Manifest{UnpackedURI: "/client/distribs/1.0.0/"}
}

func TestFetch(t *testing.T) {
	t.Run("downloads all assets", func(t *testing.T) {
		content := map[string]string{
			"/client/distribs/1.0.0/GameAssembly.dll":     "assembly-bytes",
			"/client/distribs/1.0.0/EscapeFromTarkov.exe": "exe-bytes",
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, ok := content[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		cacheDir := t.TempDir()
		f := New(Config{CDNHost: srv.URL, CacheDir: cacheDir})

		sum, err := f.Fetch(context.Background(), testManifest())
		require.NoError(t, err)
		require.Len(t, sum.Files, 2)
		assert.Equal(t, int64(len("assembly-bytes")+len("exe-bytes")), sum.Bytes)

		got, err := os.ReadFile(filepath.Join(cacheDir, "GameAssembly.dll"))
		require.NoError(t, err)
		assert.Equal(t, "assembly-bytes", string(got))

		got, err = os.ReadFile(filepath.Join(cacheDir, "EscapeFromTarkov.exe"))
		require.NoError(t, err)
		assert.Equal(t, "exe-bytes", string(got))
	})

	t.Run("overwrites prior cache contents", func(t *testing.T) {
		version := "v1"
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(version + ":" + r.URL.Path))
		}))
		defer srv.Close()

		cacheDir := t.TempDir()
		f := New(Config{CDNHost: srv.URL, CacheDir: cacheDir})

		_, err := f.Fetch(context.Background(), testManifest())
		require.NoError(t, err)

		first, err := os.ReadFile(filepath.Join(cacheDir, "GameAssembly.dll"))
		require.NoError(t, err)

		// Unchanged remote content: byte-for-byte identical after refetch.
		_, err = f.Fetch(context.Background(), testManifest())
		require.NoError(t, err)
		again, err := os.ReadFile(filepath.Join(cacheDir, "GameAssembly.dll"))
		require.NoError(t, err)
		assert.Equal(t, first, again)

		// Changed remote content: cache reflects the new bytes, no stale tail.
		version = "v2-much-longer-marker"
		_, err = f.Fetch(context.Background(), testManifest())
		require.NoError(t, err)
		updated, err := os.ReadFile(filepath.Join(cacheDir, "GameAssembly.dll"))
		require.NoError(t, err)
		assert.NotEqual(t, first, updated)
		assert.Contains(t, string(updated), "v2-much-longer-marker")
	})

	t.Run("non-2xx status fails the run", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer srv.Close()

		f := New(Config{CDNHost: srv.URL, CacheDir: t.TempDir()})

		_, err := f.Fetch(context.Background(), testManifest())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransferFailed)

		var te *TransferError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, http.StatusForbidden, te.Status)
	})

	t.Run("truncated transfer fails and keeps old cache copy", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "100")
			_, _ = w.Write([]byte("short"))
		}))
		defer srv.Close()

		cacheDir := t.TempDir()
		prior := filepath.Join(cacheDir, "GameAssembly.dll")
		require.NoError(t, os.WriteFile(prior, []byte("previous-good-copy"), 0o644))

		f := New(Config{CDNHost: srv.URL, CacheDir: cacheDir})

		_, err := f.Fetch(context.Background(), testManifest())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransferFailed)

		// The atomic replace never happened.
		got, err := os.ReadFile(prior)
		require.NoError(t, err)
		assert.Equal(t, "previous-good-copy", string(got))
	})

	t.Run("no partial rollback", func(t *testing.T) {
		// First asset succeeds, second fails: the first stays on disk.
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if filepath.Base(r.URL.Path) == "GameAssembly.dll" {
				_, _ = w.Write([]byte("ok"))
				return
			}
			http.Error(w, "gone", http.StatusBadGateway)
		}))
		defer srv.Close()

		cacheDir := t.TempDir()
		f := New(Config{CDNHost: srv.URL, CacheDir: cacheDir})

		sum, err := f.Fetch(context.Background(), testManifest())
		require.Error(t, err)
		require.Len(t, sum.Files, 1)

		_, statErr := os.Stat(filepath.Join(cacheDir, "GameAssembly.dll"))
		assert.NoError(t, statErr)
	})

	t.Run("context cancellation aborts", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		f := New(Config{CDNHost: srv.URL, CacheDir: t.TempDir()})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.Fetch(ctx, testManifest())
		assert.Error(t, err)
	})
}

func TestTransferErrorMessages(t *testing.T) {
	withStatus := &TransferError{URL: "http://cdn/x", Status: 503}
	assert.Contains(t, withStatus.Error(), "503")

	withCause := &TransferError{URL: "http://cdn/x", Err: context.DeadlineExceeded}
	assert.Contains(t, withCause.Error(), "deadline")
	assert.ErrorIs(t, withCause, context.DeadlineExceeded)
}
