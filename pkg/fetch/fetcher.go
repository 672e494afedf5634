// Package fetch retrieves game client binaries from the distribution CDN
// into a local cache directory.
//
// The fetcher downloads a fixed set of assets from the base address formed
// by joining the CDN host with the manifest's unpacked URI. Existing cache
// files are replaced atomically (temp file + rename), so a partially
// transferred download never clobbers the previous copy. There is no retry
// policy: the first failed transfer aborts the job.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/XRay205/tarkov-data/pkg/manifest"
)

// Default assets fetched from the unpacked distribution.
var DefaultAssets = []string{
	"GameAssembly.dll",
	"EscapeFromTarkov.exe",
}

// ErrTransferFailed indicates a download did not complete successfully.
var ErrTransferFailed = errors.New("transfer failed")

// TransferError describes a failed asset download.
type TransferError struct {
	// URL is the request address.
	URL string

	// Status is the HTTP status code, or zero when the request never
	// produced a response.
	Status int

	// Err is the underlying cause.
	Err error
}

// Error implements error interface.
func (e *TransferError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

// Unwrap returns ErrTransferFailed plus the underlying cause, so both
// errors.Is(err, ErrTransferFailed) and cause inspection work.
func (e *TransferError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransferFailed, e.Err}
	}
	return []error{ErrTransferFailed}
}

// Config configures a Fetcher.
type Config struct {
	// CDNHost is the scheme+host prefix of the distribution CDN,
	// e.g. "https://cdn-11.eft-store.com".
	CDNHost string

	// CacheDir is where fetched assets are written.
	CacheDir string

	// Assets to download from the unpacked distribution.
	// Default: DefaultAssets.
	Assets []string

	// RateLimit is the maximum requests per second (0 = unlimited).
	RateLimit float64

	// Client is the HTTP client to use. Default: http.DefaultClient.
	Client *http.Client
}

// FileResult records one completed download.
type FileResult struct {
	Name  string
	URL   string
	Bytes int64
}

// Summary contains aggregate statistics from a completed fetch.
type Summary struct {
	Files    []FileResult
	Bytes    int64
	Duration time.Duration
}

// Fetcher downloads distribution assets to the local cache.
//
// Fetcher is safe for reuse across runs: each Fetch re-resolves the base
// address from the manifest and overwrites cache files in place.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a fetcher with the given configuration.
func New(cfg Config) *Fetcher {
	if len(cfg.Assets) == 0 {
		cfg.Assets = DefaultAssets
	}

	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Fetcher{cfg: cfg, client: client, limiter: limiter}
}

// Fetch downloads all configured assets for the distribution described by m.
//
// Each asset is fetched from {CDNHost}{UnpackedURI}{name} and written over
// any existing cache copy. The first failure aborts the run; earlier
// completed downloads are not rolled back.
func (f *Fetcher) Fetch(ctx context.Context, m *manifest.Manifest) (*Summary, error) {
	if err := os.MkdirAll(f.cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	base := f.cfg.CDNHost + m.UnpackedURI
	start := time.Now()
	sum := &Summary{}

	for _, name := range f.cfg.Assets {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return sum, err
			}
		}

		url := base + name
		dest := filepath.Join(f.cfg.CacheDir, name)

		n, err := f.download(ctx, url, dest)
		if err != nil {
			return sum, err
		}

		sum.Files = append(sum.Files, FileResult{Name: name, URL: url, Bytes: n})
		sum.Bytes += n
	}

	sum.Duration = time.Since(start)
	return sum, nil
}

// download streams one URL to dest, replacing it atomically on success.
func (f *Fetcher) download(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &TransferError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &TransferError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &TransferError{URL: url, Status: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tarkovsync-tmp-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		return 0, &TransferError{URL: url, Err: err}
	}

	// A short body with a declared Content-Length is a truncated transfer.
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		_ = tmp.Close()
		return 0, &TransferError{URL: url, Err: fmt.Errorf("truncated body: got %d of %d bytes", n, resp.ContentLength)}
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to flush temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", dest, err)
	}

	return n, nil
}
