// Package preflight checks that the host environment can actually run
// sync jobs before any job is started.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/XRay205/tarkov-data/pkg/manifest"
)

// Check names are stable strings used in diagnostic output.
const (
	CheckBinary     = "binary"
	CheckLockDir    = "lock.dir"
	CheckCacheDir   = "cache.dir"
	CheckRepo       = "repo.worktree"
	CheckSecrets    = "secrets.file"
	CheckDecryptKey = "decrypt.key"
)

// Result is the outcome of a single environment check.
type Result struct {
	Check  string
	Target string
	OK     bool
	Detail string
}

// Spec names the paths and binaries a full update run depends on.
type Spec struct {
	// Binaries are looked up on PATH. Defaults to git and docker.
	Binaries []string

	LockDir     string
	CacheDir    string
	RepoDir     string
	SecretsPath string
	KeyPath     string
}

// DefaultBinaries are the external tools the update pipeline shells out to.
var DefaultBinaries = []string{"git", "docker"}

// Run executes all checks and reports each outcome. It never stops at
// the first failure; the caller decides what a failed check means.
func Run(spec Spec) []Result {
	binaries := spec.Binaries
	if len(binaries) == 0 {
		binaries = DefaultBinaries
	}

	var results []Result
	for _, bin := range binaries {
		results = append(results, checkBinary(bin))
	}
	if spec.LockDir != "" {
		results = append(results, checkWritableDir(CheckLockDir, spec.LockDir))
	}
	if spec.CacheDir != "" {
		results = append(results, checkWritableDir(CheckCacheDir, spec.CacheDir))
	}
	if spec.RepoDir != "" {
		results = append(results, checkWorktree(spec.RepoDir))
	}
	if spec.SecretsPath != "" {
		results = append(results, checkSecrets(spec.SecretsPath))
	}
	if spec.KeyPath != "" {
		results = append(results, checkKey(spec.KeyPath))
	}
	return results
}

// AllOK reports whether every check passed.
func AllOK(results []Result) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}

func checkBinary(name string) Result {
	path, err := exec.LookPath(name)
	if err != nil {
		return Result{Check: CheckBinary, Target: name, Detail: fmt.Sprintf("%s not found on PATH", name)}
	}
	return Result{Check: CheckBinary, Target: name, OK: true, Detail: path}
}

// checkWritableDir proves writability by actually creating a file, not
// by inspecting permission bits.
func checkWritableDir(check, dir string) Result {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Check: check, Target: dir, Detail: err.Error()}
	}
	f, err := os.CreateTemp(dir, ".tarkovsync-preflight-*")
	if err != nil {
		return Result{Check: check, Target: dir, Detail: err.Error()}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return Result{Check: check, Target: dir, OK: true}
}

func checkWorktree(dir string) Result {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return Result{Check: CheckRepo, Target: dir, Detail: "not a git working tree"}
	}
	return Result{Check: CheckRepo, Target: dir, OK: true}
}

func checkSecrets(path string) Result {
	if _, err := manifest.LoadSecrets(path); err != nil {
		return Result{Check: CheckSecrets, Target: path, Detail: err.Error()}
	}
	return Result{Check: CheckSecrets, Target: path, OK: true}
}

func checkKey(path string) Result {
	if _, err := manifest.LoadKey(path); err != nil {
		return Result{Check: CheckDecryptKey, Target: path, Detail: err.Error()}
	}
	return Result{Check: CheckDecryptKey, Target: path, OK: true}
}
