// Package extractor models the external containerized tool that extracts
// and decrypts game metadata.
//
// The tool is an opaque, pinned container image: given valid service
// credentials and writable directories it deposits updated data files under
// the output and cache directories, and its decrypt subcommand turns an
// encrypted cache file into a cleartext one. Its internals are not this
// repository's concern; the capability interface exists so the update
// pipeline can run against fakes.
package extractor

import "context"

// Credentials authenticates the tool against the game service.
type Credentials struct {
	Email    string
	Password string
}

// Extractor is the external tool capability.
type Extractor interface {
	// Run invokes the tool's default mode to populate outDir and cacheDir.
	Run(ctx context.Context, creds Credentials, outDir, cacheDir string) error

	// Decrypt invokes the tool's decrypt subcommand on inputPath, writing
	// the cleartext result to outputPath.
	Decrypt(ctx context.Context, inputPath, outputPath, key string) error
}

// RegistryAuthenticator logs in to the container registry hosting the tool
// image.
type RegistryAuthenticator interface {
	Login(ctx context.Context, login, token string) error
}
