// Package config loads the tarkovsync configuration.
//
// Precedence, lowest to highest: built-in defaults, config file
// (tarkovsync.yaml), TARKOVSYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Lock     LockConfig     `mapstructure:"lock"`
	CDN      CDNConfig      `mapstructure:"cdn"`
	Update   UpdateConfig   `mapstructure:"update"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	// StateFile is where the last-run summary is persisted for the
	// status server.
	StateFile string `mapstructure:"state_file"`
}

// LockConfig controls single-instance run coordination.
type LockConfig struct {
	// Dir holds the per-job pid marker files.
	Dir string `mapstructure:"dir"`
}

// CDNConfig controls asset downloads.
type CDNConfig struct {
	// Host is the CDN base URL, e.g. "https://cdn-11.eft-store.com".
	Host string `mapstructure:"host"`

	// ManifestPath points at the version manifest naming the current
	// unpacked client path.
	ManifestPath string `mapstructure:"manifest_path"`

	// CacheDir receives the downloaded binaries.
	CacheDir string `mapstructure:"cache_dir"`

	// Assets overrides the default asset list.
	Assets []string `mapstructure:"assets"`

	// RateLimit caps download requests per second. Zero disables.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// UpdateConfig controls the repository update pipeline.
type UpdateConfig struct {
	// RepoDir is the git working tree that receives extracted data.
	RepoDir string `mapstructure:"repo_dir"`

	// CacheDir is the extractor's scratch directory.
	CacheDir string `mapstructure:"cache_dir"`

	// SecretsPath is the credentials file.
	SecretsPath string `mapstructure:"secrets_path"`

	// KeyPath is the metadata decryption key file.
	KeyPath string `mapstructure:"key_path"`

	// DecryptInput and DecryptOutput are the encrypted metadata file
	// and its decrypted destination.
	DecryptInput  string `mapstructure:"decrypt_input"`
	DecryptOutput string `mapstructure:"decrypt_output"`

	// Image is the pinned extractor container image reference.
	Image string `mapstructure:"image"`

	// Registry is the container registry host for docker login.
	Registry string `mapstructure:"registry"`

	// DataPatterns classify changed paths as game data in commit
	// messages.
	DataPatterns []string `mapstructure:"data_patterns"`
}

// SnapshotConfig controls live API captures.
type SnapshotConfig struct {
	// OutDir receives one JSON file per captured endpoint.
	OutDir string `mapstructure:"out_dir"`

	// StorageDir persists per-account hardware codes.
	StorageDir string `mapstructure:"storage_dir"`

	// RateLimit caps API requests per second. Zero disables.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// MirrorConfig controls optional asset mirroring to object storage.
type MirrorConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Target selects the store backend: "s3" or "file".
	Target string `mapstructure:"target"`

	// Prefix is prepended to object keys.
	Prefix string `mapstructure:"prefix"`

	// BaseDir is the destination directory for the file target.
	BaseDir string `mapstructure:"base_dir"`

	// S3 settings, used when Target is "s3".
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	Profile        string `mapstructure:"profile"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Profile    string `mapstructure:"profile"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// SetDefaults installs the built-in defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("lock.dir", "/tmp/tarkovsync")
	v.SetDefault("state_file", "state/last_run.json")

	v.SetDefault("cdn.host", "")
	v.SetDefault("cdn.manifest_path", "current_version.json")
	v.SetDefault("cdn.cache_dir", "cache")
	v.SetDefault("cdn.assets", []string{})
	v.SetDefault("cdn.rate_limit", 0.0)

	v.SetDefault("update.repo_dir", ".")
	v.SetDefault("update.cache_dir", "cache")
	v.SetDefault("update.secrets_path", "secrets.json")
	v.SetDefault("update.key_path", "metadata.key")
	v.SetDefault("update.decrypt_input", "cache/global-metadata.dat")
	v.SetDefault("update.decrypt_output", "global-metadata.decrypted.dat")
	v.SetDefault("update.image", "")
	v.SetDefault("update.registry", "")
	v.SetDefault("update.data_patterns", []string{"c/**"})

	v.SetDefault("snapshot.out_dir", "snapshots")
	v.SetDefault("snapshot.storage_dir", ".eft_storage")
	v.SetDefault("snapshot.rate_limit", 1.0)

	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.target", "s3")
	v.SetDefault("mirror.prefix", "assets")
	v.SetDefault("mirror.base_dir", "")
	v.SetDefault("mirror.bucket", "")
	v.SetDefault("mirror.region", "")
	v.SetDefault("mirror.endpoint", "")
	v.SetDefault("mirror.profile", "")
	v.SetDefault("mirror.force_path_style", false)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 0)
	v.SetDefault("logging.max_backups", 0)
}

// Load reads configuration from the optional file path plus the
// environment, returning the typed Config.
//
// An empty path searches the working directory and
// $HOME/.config/tarkovsync for tarkovsync.{yaml,json}; a missing file
// is not an error in that mode.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("TARKOVSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tarkovsync")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tarkovsync")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	// Unmarshal only consults the environment for keys viper already
	// knows, so bind every known key explicitly. SetDefaults registers
	// a default for each key to make AllKeys complete.
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Mirror.Enabled {
		switch c.Mirror.Target {
		case "s3":
			if c.Mirror.Bucket == "" {
				return fmt.Errorf("config: mirror.bucket is required when mirror target is s3")
			}
		case "file":
			if c.Mirror.BaseDir == "" {
				return fmt.Errorf("config: mirror.base_dir is required when mirror target is file")
			}
		default:
			return fmt.Errorf("config: unknown mirror target %q", c.Mirror.Target)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	return nil
}
