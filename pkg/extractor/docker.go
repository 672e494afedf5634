package extractor

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DockerExtractor runs the pinned tool image through the docker command.
type DockerExtractor struct {
	// Image is the pinned tool image reference,
	// e.g. "ghcr.io/xray205/tarkovdata-deployer:v3".
	Image string

	// Registry is the registry host used for login. Empty means the
	// docker default registry.
	Registry string
}

var (
	_ Extractor             = (*DockerExtractor)(nil)
	_ RegistryAuthenticator = (*DockerExtractor)(nil)
)

// NewDockerExtractor creates a docker-backed extractor for the given image.
func NewDockerExtractor(image, registry string) *DockerExtractor {
	return &DockerExtractor{Image: image, Registry: registry}
}

// Login authenticates to the container registry. The token goes through
// stdin so it never appears in the process argument list.
func (d *DockerExtractor) Login(ctx context.Context, login, token string) error {
	cmd := exec.CommandContext(ctx, "docker", loginArgs(d.Registry, login)...)
	cmd.Stdin = strings.NewReader(token)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("docker login failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Run invokes the tool's default mode. Host directories are bind-mounted at
// the same paths inside the container so the tool's -o/-c arguments can be
// passed through unchanged.
func (d *DockerExtractor) Run(ctx context.Context, creds Credentials, outDir, cacheDir string) error {
	cmd := exec.CommandContext(ctx, "docker", runArgs(d.Image, creds, outDir, cacheDir)...)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("extractor run failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Decrypt invokes the tool's decrypt subcommand.
func (d *DockerExtractor) Decrypt(ctx context.Context, inputPath, outputPath, key string) error {
	cmd := exec.CommandContext(ctx, "docker", decryptArgs(d.Image, inputPath, outputPath, key)...)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("extractor decrypt failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func loginArgs(registry, login string) []string {
	args := []string{"login", "--username", login, "--password-stdin"}
	if registry != "" {
		args = append(args, registry)
	}
	return args
}

func runArgs(image string, creds Credentials, outDir, cacheDir string) []string {
	return []string{
		"run", "--rm",
		"-v", outDir + ":" + outDir,
		"-v", cacheDir + ":" + cacheDir,
		image,
		"-e", creds.Email,
		"-p", creds.Password,
		"-o", outDir,
		"-c", cacheDir,
	}
}

func decryptArgs(image, inputPath, outputPath, key string) []string {
	// Mount the enclosing directories, not the files. The output file may
	// not exist yet and docker would create it as a directory.
	args := []string{
		"run", "--rm",
		"-v", filepath.Dir(inputPath) + ":" + filepath.Dir(inputPath),
	}
	if filepath.Dir(outputPath) != filepath.Dir(inputPath) {
		args = append(args, "-v", filepath.Dir(outputPath)+":"+filepath.Dir(outputPath))
	}
	return append(args,
		image,
		"decrypt",
		"-i", inputPath,
		"-e", outputPath,
		"-k", key,
	)
}
