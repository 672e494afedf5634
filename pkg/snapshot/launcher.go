// Package snapshot captures game data from the live client API.
//
// The flow mirrors what the official launcher does: authenticate with
// the launcher backend, start a game session, then query /client/*
// routes with the session cookie. Responses arrive zlib-compressed and
// are saved as pretty-printed JSON files, one per endpoint.
package snapshot

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default backend endpoints and client identity. The versions track the
// launcher release the backend currently accepts.
const (
	DefaultLauncherURL = "https://launcher.escapefromtarkov.com"
	DefaultProdURL     = "https://prod.escapefromtarkov.com"

	DefaultLauncherVersion = "14.7.2.4271"
	DefaultClientVersion   = "1.0.1.0.42625"
	DefaultUnityVersion    = "2021.3.16f1"
)

// Auth failure sentinels. The backend reports errors as numeric codes
// in the response envelope; the interesting ones get their own errors.
var (
	ErrAuthFailed         = errors.New("launcher authentication failed")
	ErrCaptchaRequired    = errors.New("captcha required, cannot proceed unattended")
	ErrHardwareActivation = errors.New("hardware activation required, check account email for the code")
	ErrBadPassword        = errors.New("wrong password")
)

// Backend error codes carried in the response envelope.
const (
	codeOK                 = 0
	codeCaptchaRequired    = 206
	codeHardwareActivation = 209
	codeBadPassword        = 211
)

// APIError is a non-zero backend error envelope.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// Unwrap maps well-known backend codes onto sentinel errors.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case codeCaptchaRequired:
		return ErrCaptchaRequired
	case codeHardwareActivation:
		return ErrHardwareActivation
	case codeBadPassword:
		return ErrBadPassword
	default:
		return ErrAuthFailed
	}
}

// envelope is the response wrapper every backend route uses.
type envelope struct {
	Err    int             `json:"err"`
	ErrMsg string          `json:"errmsg"`
	Data   json.RawMessage `json:"data"`
}

// LauncherConfig configures the launcher client. Zero values fall back
// to the package defaults.
type LauncherConfig struct {
	LauncherURL     string
	ProdURL         string
	LauncherVersion string
	ClientVersion   string
	UnityVersion    string

	// StorageDir persists the generated hardware code per account so
	// repeat logins look like the same device. Reusing the code avoids
	// re-triggering email activation.
	StorageDir string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

func (c *LauncherConfig) applyDefaults() {
	if c.LauncherURL == "" {
		c.LauncherURL = DefaultLauncherURL
	}
	if c.ProdURL == "" {
		c.ProdURL = DefaultProdURL
	}
	if c.LauncherVersion == "" {
		c.LauncherVersion = DefaultLauncherVersion
	}
	if c.ClientVersion == "" {
		c.ClientVersion = DefaultClientVersion
	}
	if c.UnityVersion == "" {
		c.UnityVersion = DefaultUnityVersion
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
}

// Launcher authenticates against the launcher backend and holds the
// resulting access token and game session.
type Launcher struct {
	cfg      LauncherConfig
	email    string
	password string
	hwCode   string

	token   string
	session string
}

// NewLauncher builds a launcher client, loading or generating the
// persistent hardware code for the account.
func NewLauncher(email, password string, cfg LauncherConfig) (*Launcher, error) {
	cfg.applyDefaults()
	if email == "" || password == "" {
		return nil, errors.New("snapshot: email and password are required")
	}

	l := &Launcher{cfg: cfg, email: email, password: password}

	hwCode, err := loadOrCreateHWCode(cfg.StorageDir, email)
	if err != nil {
		return nil, fmt.Errorf("hardware code: %w", err)
	}
	l.hwCode = hwCode
	return l, nil
}

// Login authenticates with the launcher backend. The password is sent
// as its MD5 hex digest, which is what the backend expects.
func (l *Launcher) Login(ctx context.Context) error {
	url := fmt.Sprintf("%s/launcher/login?launcherVersion=%s&branch=live", l.cfg.LauncherURL, l.cfg.LauncherVersion)

	body := map[string]string{
		"email":  l.email,
		"pass":   md5Hex([]byte(l.password)),
		"hwCode": l.hwCode,
	}

	env, err := l.post(ctx, url, body, l.launcherHeaders())
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if env.Err != codeOK {
		return fmt.Errorf("login: %w", &APIError{Code: env.Err, Message: env.ErrMsg})
	}

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("login: decode response: %w", err)
	}
	if data.AccessToken == "" {
		return fmt.Errorf("login: %w: no access token in response", ErrAuthFailed)
	}
	l.token = data.AccessToken
	return nil
}

// ActivateHardware confirms a new device with the code the backend
// emails on first login.
func (l *Launcher) ActivateHardware(ctx context.Context, code string) error {
	url := fmt.Sprintf("%s/launcher/hardwareCode/activate?launcherVersion=%s", l.cfg.LauncherURL, l.cfg.LauncherVersion)

	body := map[string]string{
		"email":        l.email,
		"hwCode":       l.hwCode,
		"activateCode": code,
	}

	env, err := l.post(ctx, url, body, l.launcherHeaders())
	if err != nil {
		return fmt.Errorf("activate hardware: %w", err)
	}
	if env.Err != codeOK {
		return fmt.Errorf("activate hardware: %w", &APIError{Code: env.Err, Message: env.ErrMsg})
	}
	return nil
}

// StartGame obtains a game session. Requires a prior successful Login.
func (l *Launcher) StartGame(ctx context.Context) error {
	if l.token == "" {
		return fmt.Errorf("start game: %w: not logged in", ErrAuthFailed)
	}

	url := fmt.Sprintf("%s/launcher/game/start?launcherVersion=%s&branch=live", l.cfg.ProdURL, l.cfg.LauncherVersion)

	body := map[string]any{
		"version": map[string]string{
			"major":   l.cfg.ClientVersion,
			"game":    "live",
			"backend": "6",
		},
		"hwCode": l.hwCode,
	}

	env, err := l.post(ctx, url, body, l.launcherHeaders())
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	if env.Err != codeOK {
		return fmt.Errorf("start game: %w", &APIError{Code: env.Err, Message: env.ErrMsg})
	}

	var data struct {
		Session string `json:"session"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("start game: decode response: %w", err)
	}
	if data.Session == "" {
		return fmt.Errorf("start game: %w: no session in response", ErrAuthFailed)
	}
	l.session = data.Session
	return nil
}

// Session returns the game session ID, or empty before StartGame.
func (l *Launcher) Session() string {
	return l.session
}

func (l *Launcher) launcherHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", "BSG Launcher "+l.cfg.LauncherVersion)
	if l.token != "" {
		h.Set("Authorization", l.token)
	}
	return h
}

func (l *Launcher) clientHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("User-Agent", fmt.Sprintf("UnityPlayer/%s (UnityWebRequest/1.0, libcurl/7.52.0-DEV)", l.cfg.UnityVersion))
	h.Set("App-Version", "EFT Client "+l.cfg.ClientVersion)
	h.Set("X-Unity-Version", l.cfg.UnityVersion)
	h.Set("Cookie", "PHPSESSID="+l.session)
	return h
}

func (l *Launcher) post(ctx context.Context, url string, body any, headers http.Header) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header = headers

	resp, err := l.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp.Body)
}

// decodeEnvelope reads a backend response, which may be zlib-compressed
// or plain JSON, and parses the error envelope.
func decodeEnvelope(r io.Reader) (*envelope, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	decoded, err := inflate(raw)
	if err != nil {
		// Not compressed; some routes answer plain JSON.
		decoded = raw
	}

	var env envelope
	if err := json.Unmarshal(decoded, &env); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	return &env, nil
}

// inflate decompresses a zlib stream.
func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// loadOrCreateHWCode returns the persisted hardware code for the
// account, generating and saving a fresh one on first use. An empty
// dir skips persistence and always generates.
func loadOrCreateHWCode(dir, email string) (string, error) {
	if dir == "" {
		return generateHWCode()
	}

	accountDir := filepath.Join(dir, md5Hex([]byte(email))[:12])
	path := filepath.Join(accountDir, "hwcode.txt")

	if raw, err := os.ReadFile(path); err == nil {
		if code := strings.TrimSpace(string(raw)); code != "" {
			return code, nil
		}
	}

	code, err := generateHWCode()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(accountDir, 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		return "", err
	}
	return code, nil
}

// generateHWCode produces a device identifier in the format the
// backend expects:
//
//	#1-{md5}:{md5}:{md5}-{md5}-{md5}-{md5}-{md5}-{md5[:24]}
func generateHWCode() (string, error) {
	randomMD5 := func() (string, error) {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return md5Hex(buf), nil
	}

	parts := make([]string, 8)
	for i := range parts {
		p, err := randomMD5()
		if err != nil {
			return "", err
		}
		parts[i] = p
	}

	return fmt.Sprintf("#1-%s:%s:%s-%s-%s-%s-%s-%s",
		parts[0], parts[1], parts[2],
		parts[3], parts[4], parts[5], parts[6],
		parts[7][:24]), nil
}
