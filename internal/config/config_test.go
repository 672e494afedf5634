package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from an empty directory so no stray config file is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/tarkovsync", cfg.Lock.Dir)
	assert.Equal(t, "state/last_run.json", cfg.StateFile)

	assert.Equal(t, "current_version.json", cfg.CDN.ManifestPath)
	assert.Equal(t, "cache", cfg.CDN.CacheDir)

	assert.Equal(t, ".", cfg.Update.RepoDir)
	assert.Equal(t, "secrets.json", cfg.Update.SecretsPath)
	assert.Equal(t, "metadata.key", cfg.Update.KeyPath)
	assert.Equal(t, []string{"c/**"}, cfg.Update.DataPatterns)

	assert.Equal(t, "snapshots", cfg.Snapshot.OutDir)
	assert.Equal(t, 1.0, cfg.Snapshot.RateLimit)

	assert.False(t, cfg.Mirror.Enabled)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "structured", cfg.Logging.Profile)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tarkovsync.yaml")
	doc := `
cdn:
  host: https://cdn.example.net
  cache_dir: /srv/cache
  assets:
    - GameAssembly.dll
update:
  repo_dir: /srv/repo
  image: ghcr.io/acme/deployer:v3
server:
  port: 9000
  read_timeout: 5s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.net", cfg.CDN.Host)
	assert.Equal(t, "/srv/cache", cfg.CDN.CacheDir)
	assert.Equal(t, []string{"GameAssembly.dll"}, cfg.CDN.Assets)
	assert.Equal(t, "/srv/repo", cfg.Update.RepoDir)
	assert.Equal(t, "ghcr.io/acme/deployer:v3", cfg.Update.Image)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset values keep their defaults.
	assert.Equal(t, "metadata.key", cfg.Update.KeyPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TARKOVSYNC_CDN_HOST", "https://env.example.net")
	t.Setenv("TARKOVSYNC_SERVER_PORT", "7070")
	t.Setenv("TARKOVSYNC_LOGGING_LEVEL", "warn")
	t.Setenv("TARKOVSYNC_UPDATE_IMAGE", "registry.example.net/extractor:v3")
	t.Setenv("TARKOVSYNC_MIRROR_BUCKET", "env-bucket")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.net", cfg.CDN.Host)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Keys with no built-in default still honor the environment.
	assert.Equal(t, "registry.example.net/extractor:v3", cfg.Update.Image)
	assert.Equal(t, "env-bucket", cfg.Mirror.Bucket)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		c := &Config{}
		c.Server.Port = 8080
		return c
	}

	t.Run("mirror disabled needs nothing", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("s3 mirror requires bucket", func(t *testing.T) {
		c := base()
		c.Mirror.Enabled = true
		c.Mirror.Target = "s3"
		assert.Error(t, c.Validate())

		c.Mirror.Bucket = "assets"
		assert.NoError(t, c.Validate())
	})

	t.Run("file mirror requires base dir", func(t *testing.T) {
		c := base()
		c.Mirror.Enabled = true
		c.Mirror.Target = "file"
		assert.Error(t, c.Validate())

		c.Mirror.BaseDir = "/mnt/mirror"
		assert.NoError(t, c.Validate())
	})

	t.Run("unknown mirror target", func(t *testing.T) {
		c := base()
		c.Mirror.Enabled = true
		c.Mirror.Target = "ftp"
		assert.Error(t, c.Validate())
	})

	t.Run("port range", func(t *testing.T) {
		c := base()
		c.Server.Port = 70000
		assert.Error(t, c.Validate())
	})
}
