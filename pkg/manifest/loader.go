package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a distribution manifest from the given file path.
//
// The file format is determined by extension: .yaml/.yml for YAML, .json for
// JSON. If the extension is unrecognized, YAML is attempted first, then JSON.
//
// Returns an error if:
//   - The file cannot be read (not found, permission denied, etc.)
//   - The file content is not valid YAML or JSON
//   - The manifest is missing required fields
func Load(path string) (*Manifest, error) {
	data, err := readConfigFile(path, "manifest")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return LoadFromBytes(data, path)
}

// LoadFromBytes parses and validates a manifest from raw bytes.
//
// The path parameter is used for error messages and format detection.
// If path is empty, format detection falls back to trying YAML first.
func LoadFromBytes(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := parseDocument(data, path, "manifest", &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid manifest: %w", ErrUnreadable, err)
	}
	return &m, nil
}

// LoadFromReader reads and validates a manifest from an io.Reader.
func LoadFromReader(r io.Reader, path string) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read manifest: %w", ErrUnreadable, err)
	}
	return LoadFromBytes(data, path)
}

// LoadSecrets reads and validates the secrets store at the given file path.
//
// All four credential fields (email, password, docker_login, docker_token)
// are required; a missing or empty field is a validation error.
func LoadSecrets(path string) (*Secrets, error) {
	data, err := readConfigFile(path, "secrets")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return LoadSecretsFromBytes(data, path)
}

// LoadSecretsFromBytes parses and validates secrets from raw bytes.
func LoadSecretsFromBytes(data []byte, path string) (*Secrets, error) {
	var s Secrets
	if err := parseDocument(data, path, "secrets", &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid secrets: %w", ErrUnreadable, err)
	}
	return &s, nil
}

// LoadKey reads the raw decryption key from a key file.
//
// The file content is used verbatim after trimming surrounding whitespace.
// An empty key file is an error.
func LoadKey(path string) (string, error) {
	data, err := readConfigFile(path, "key")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w: key file is empty: %s", ErrUnreadable, path)
	}
	return key, nil
}

// readConfigFile reads a file with friendlier errors for the common cases.
func readConfigFile(path, kind string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", kind, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading %s: %s", kind, path)
		}
		return nil, fmt.Errorf("failed to read %s file: %w", kind, err)
	}
	return data, nil
}

// parseDocument parses data into out based on the file extension of path.
func parseDocument(data []byte, path, kind string, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("%s file is empty", kind)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("invalid JSON in %s: %w", kind, err)
		}
		return nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("invalid YAML in %s: %w", kind, err)
		}
		return nil
	default:
		// Unknown extension: try YAML first (superset of JSON), then JSON.
		yamlErr := yaml.Unmarshal(data, out)
		if yamlErr == nil {
			return nil
		}
		if jsonErr := json.Unmarshal(data, out); jsonErr == nil {
			return nil
		}
		return fmt.Errorf("failed to parse %s (tried YAML and JSON): %w", kind, yamlErr)
	}
}

// ErrUnreadable classifies any manifest, secrets, or key loading failure.
// All public loaders wrap their errors with it so callers can branch with
// errors.Is without inspecting messages.
var ErrUnreadable = errors.New("config unreadable")
