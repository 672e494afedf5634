// Package manifest provides loading and validation of the local metadata
// files the sync jobs consume: the launcher distribution manifest, the
// service secrets file, and the raw decryption key.
//
// Manifests and secrets are YAML or JSON files. The format is detected from
// the file extension, falling back to trying YAML first.
//
// Example manifest (JSON, as written by the launcher):
//
//	{
//	  "unpackedUri": "/client/distribs/2024.12.1.0.35392/",
//	  "version": "2024.12.1.0.35392"
//	}
package manifest

import (
	"fmt"
	"strings"
)

// Manifest describes where versioned game assets can be fetched from.
type Manifest struct {
	// UnpackedURI is the CDN path component for the current unpacked
	// distribution. Joined with the CDN host to form download URLs.
	UnpackedURI string `json:"unpackedUri" yaml:"unpackedUri"`

	// Version is the distribution version the manifest describes. Optional;
	// informational only.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Validate checks that required manifest fields are present.
func (m *Manifest) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(m.UnpackedURI) == "" {
		errs = append(errs, ValidationError{Path: "/unpackedUri", Message: "required field is missing or empty"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Secrets holds the service and container-registry credentials the update
// job loads from a local secrets store.
type Secrets struct {
	// Email is the game service account email.
	Email string `json:"email" yaml:"email"`

	// Password is the game service account password.
	Password string `json:"password" yaml:"password"`

	// DockerLogin is the container registry user name.
	DockerLogin string `json:"docker_login" yaml:"docker_login"`

	// DockerToken is the container registry access token.
	DockerToken string `json:"docker_token" yaml:"docker_token"`
}

// Validate checks that all secrets fields are present.
func (s *Secrets) Validate() error {
	var errs ValidationErrors

	check := func(path, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, ValidationError{Path: path, Message: "required field is missing or empty"})
		}
	}

	check("/email", s.Email)
	check("/password", s.Password)
	check("/docker_login", s.DockerLogin)
	check("/docker_token", s.DockerToken)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationError represents a single validation issue.
type ValidationError struct {
	// Path is the JSON pointer to the problematic field (e.g., "/email").
	Path string

	// Message describes the validation failure.
	Message string
}

// Error implements error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e), strings.Join(msgs, "; "))
}
