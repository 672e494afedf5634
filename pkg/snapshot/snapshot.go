package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/XRay205/tarkov-data/pkg/output"
)

// Endpoint names a /client/* route and the file its response is saved
// under.
type Endpoint struct {
	// Name becomes the output file name (Name + ".json").
	Name string

	// Path is the backend route, e.g. "/client/items".
	Path string
}

// DefaultEndpoints is the standard capture list.
var DefaultEndpoints = []Endpoint{
	{"globals", "/client/globals"},
	{"items", "/client/items"},
	{"locale_en", "/client/locale/en"},
	{"achievements", "/client/achievement/list"},
	{"achievement_stats", "/client/achievement/statistic"},
	{"locations", "/client/locations"},
	{"hideout_areas", "/client/hideout/areas"},
	{"hideout_settings", "/client/hideout/settings"},
	{"hideout_recipes", "/client/hideout/production/recipes"},
	{"trader_settings", "/client/trading/api/traderSettings"},
	{"customization", "/client/customization"},
	{"handbook", "/client/handbook/templates"},
}

// Client issues authenticated game-client requests. Each request gets a
// monotonically increasing GClient-RequestId header.
type Client struct {
	launcher  *Launcher
	requestID atomic.Int64
}

// NewClient wraps a logged-in launcher with a game client.
func NewClient(l *Launcher) *Client {
	return &Client{launcher: l}
}

// Get fetches a /client/* route and returns the decoded envelope.
func (c *Client) Get(ctx context.Context, endpoint string) (*envelope, error) {
	url := c.launcher.cfg.ProdURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header = c.launcher.clientHeaders()
	req.Header.Set("GClient-RequestId", strconv.FormatInt(c.requestID.Add(1), 10))

	resp, err := c.launcher.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp.Body)
}

// Snapshotter captures a set of endpoints to JSON files.
type Snapshotter struct {
	launcher  *Launcher
	client    *Client
	limiter   *rate.Limiter
	endpoints []Endpoint
	outDir    string
	out       output.Writer
	log       *zap.Logger
}

// SnapshotterConfig configures a capture run.
type SnapshotterConfig struct {
	// OutDir receives one <name>.json file per endpoint.
	OutDir string

	// Endpoints defaults to DefaultEndpoints when empty.
	Endpoints []Endpoint

	// RateLimit caps requests per second against the backend.
	// Zero disables limiting.
	RateLimit float64
}

// NewSnapshotter assembles a capture run over a launcher session.
func NewSnapshotter(l *Launcher, cfg SnapshotterConfig, out output.Writer, log *zap.Logger) *Snapshotter {
	endpoints := cfg.Endpoints
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Snapshotter{
		launcher:  l,
		client:    NewClient(l),
		limiter:   limiter,
		endpoints: endpoints,
		outDir:    cfg.OutDir,
		out:       out,
		log:       log,
	}
}

// Summary aggregates a capture run.
type Summary struct {
	Captured int
	Failed   int
	Bytes    int64
	Duration time.Duration
}

// Run logs in, starts a game session, and captures every configured
// endpoint. A failing endpoint is recorded and skipped; only auth
// failures abort the run.
func (s *Snapshotter) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	if err := s.launcher.Login(ctx); err != nil {
		return nil, err
	}
	s.log.Info("launcher login successful")

	if err := s.launcher.StartGame(ctx); err != nil {
		return nil, err
	}
	s.log.Info("game session started")

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	sum := &Summary{}
	for _, ep := range s.endpoints {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return sum, err
			}
		}

		n, err := s.capture(ctx, ep)
		if err != nil {
			sum.Failed++
			s.log.Warn("endpoint capture failed",
				zap.String("endpoint", ep.Path),
				zap.Error(err))
			if werr := s.out.WriteError(ctx, &output.ErrorRecord{
				Code:    output.ErrCodeTransfer,
				Message: err.Error(),
				Details: map[string]string{"endpoint": ep.Path},
			}); werr != nil {
				s.log.Warn("failed to write error record", zap.Error(werr))
			}
			continue
		}

		sum.Captured++
		sum.Bytes += n
	}
	sum.Duration = time.Since(start)

	if werr := s.out.WriteSummary(ctx, &output.SummaryRecord{
		StepsRun:      sum.Captured + sum.Failed,
		StepsFailed:   sum.Failed,
		Bytes:         sum.Bytes,
		Duration:      sum.Duration,
		DurationHuman: sum.Duration.Round(time.Millisecond).String(),
	}); werr != nil {
		s.log.Warn("failed to write summary record", zap.Error(werr))
	}

	return sum, nil
}

// capture fetches one endpoint and writes the pretty-printed response.
func (s *Snapshotter) capture(ctx context.Context, ep Endpoint) (int64, error) {
	env, err := s.client.Get(ctx, ep.Path)
	if err != nil {
		return 0, err
	}
	if env.Err != codeOK {
		return 0, &APIError{Code: env.Err, Message: env.ErrMsg}
	}

	path := filepath.Join(s.outDir, ep.Name+".json")
	n, err := writePrettyJSON(path, env.Data)
	if err != nil {
		return 0, err
	}

	s.log.Info("endpoint captured",
		zap.String("endpoint", ep.Path),
		zap.String("path", path),
		zap.Int64("bytes", n))

	if werr := s.out.WriteSnapshot(ctx, &output.SnapshotRecord{
		Endpoint: ep.Path,
		Path:     path,
		Bytes:    n,
	}); werr != nil {
		s.log.Warn("failed to write snapshot record", zap.Error(werr))
	}

	return n, nil
}

// writePrettyJSON indents raw JSON and writes it atomically via a
// temp file in the target directory.
func writePrettyJSON(path string, raw json.RawMessage) (int64, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return 0, fmt.Errorf("indent response: %w", err)
	}
	pretty.WriteByte('\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tarkovsync-tmp-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return int64(pretty.Len()), nil
}
