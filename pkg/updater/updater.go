// Package updater runs the repository update pipeline.
//
// A run is a fixed sequence of named steps: rebase the working tree on
// upstream, load credentials, authenticate to the container registry,
// run the extraction tool, decrypt metadata, read the working tree
// status, commit with a synthesized message, and push. The first
// failing step aborts the run. Each step emits a JSONL record so runs
// can be replayed from their output alone.
package updater

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/XRay205/tarkov-data/pkg/changeset"
	"github.com/XRay205/tarkov-data/pkg/extractor"
	"github.com/XRay205/tarkov-data/pkg/manifest"
	"github.com/XRay205/tarkov-data/pkg/output"
	"github.com/XRay205/tarkov-data/pkg/vcs"
)

// Step names, in execution order.
const (
	StepPull    = "pull"
	StepSecrets = "secrets"
	StepLogin   = "login"
	StepExtract = "extract"
	StepDecrypt = "decrypt"
	StepStatus  = "status"
	StepCommit  = "commit"
	StepPush    = "push"
)

// Config holds the paths and settings for an update run.
type Config struct {
	// RepoDir is the git working tree the extractor writes into.
	RepoDir string

	// CacheDir is the extractor's scratch directory.
	CacheDir string

	// SecretsPath is the credentials file (email, password, registry
	// login and token).
	SecretsPath string

	// KeyPath is the file holding the metadata decryption key.
	KeyPath string

	// DecryptInput is the encrypted metadata file the extractor leaves
	// in the cache.
	DecryptInput string

	// DecryptOutput is where the decrypted metadata is written.
	DecryptOutput string

	// DataPatterns classify changed paths as game data when
	// synthesizing the commit message. Defaults to
	// changeset.DefaultDataPatterns when empty.
	DataPatterns []string
}

// State is the shared state threaded through pipeline steps.
//
// Steps communicate only through State and the filesystem; there is no
// other data flow between them.
type State struct {
	Secrets manifest.Secrets
	Key     string

	Statuses []vcs.FileStatus
	Changes  *changeset.ChangeSet

	CommitMessage string
	Committed     bool
}

// Result summarizes a finished run.
type Result struct {
	StepsRun      int
	FilesChanged  int
	Committed     bool
	CommitMessage string
	Duration      time.Duration
}

// StepError reports which pipeline step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return "updater: step " + e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// step is one named stage of the pipeline.
type step struct {
	name string
	run  func(ctx context.Context, st *State) error
}

// Pipeline executes the update sequence against a git repository.
type Pipeline struct {
	cfg  Config
	git  vcs.Client
	ext  extractor.Extractor
	auth extractor.RegistryAuthenticator
	out  output.Writer
	log  *zap.Logger
}

// New assembles a pipeline. The output writer and logger may not be nil;
// pass output discarding implementations if records are unwanted.
func New(cfg Config, git vcs.Client, ext extractor.Extractor, auth extractor.RegistryAuthenticator, out output.Writer, log *zap.Logger) *Pipeline {
	if len(cfg.DataPatterns) == 0 {
		cfg.DataPatterns = changeset.DefaultDataPatterns
	}
	return &Pipeline{cfg: cfg, git: git, ext: ext, auth: auth, out: out, log: log}
}

// Run executes every step in order, stopping at the first failure.
//
// A summary record is written whether the run succeeds or fails. The
// returned Result is valid in both cases and reflects the steps that
// actually ran.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	st := &State{}
	res := &Result{}

	var runErr error
	for _, s := range p.steps() {
		stepStart := time.Now()
		err := s.run(ctx, st)
		elapsed := time.Since(stepStart)
		res.StepsRun++

		rec := &output.StepRecord{Name: s.name, Status: output.StepOK, Duration: elapsed}
		if err != nil {
			rec.Status = output.StepFailed
		} else if s.name == StepCommit {
			rec.Detail = st.CommitMessage
		}
		if werr := p.out.WriteStep(ctx, rec); werr != nil {
			p.log.Warn("failed to write step record", zap.String("step", s.name), zap.Error(werr))
		}

		if err != nil {
			p.log.Error("pipeline step failed",
				zap.String("step", s.name),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			if werr := p.out.WriteError(ctx, &output.ErrorRecord{
				Code:    errorCode(s.name),
				Message: err.Error(),
				Step:    s.name,
			}); werr != nil {
				p.log.Warn("failed to write error record", zap.Error(werr))
			}
			runErr = &StepError{Step: s.name, Err: err}
			break
		}

		p.log.Info("pipeline step complete",
			zap.String("step", s.name),
			zap.Duration("elapsed", elapsed))
	}

	if st.Changes != nil {
		res.FilesChanged = st.Changes.Len()
	}
	res.Committed = st.Committed
	res.CommitMessage = st.CommitMessage
	res.Duration = time.Since(start)

	sum := &output.SummaryRecord{
		StepsRun:     res.StepsRun,
		FilesChanged: res.FilesChanged,
		Duration:     res.Duration,
		// Round: sub-millisecond noise is meaningless for a run that
		// shells out to git and docker.
		DurationHuman: res.Duration.Round(time.Millisecond).String(),
	}
	if runErr != nil {
		sum.StepsFailed = 1
	}
	if st.Committed {
		sum.CommitMessage = st.CommitMessage
	}
	if werr := p.out.WriteSummary(ctx, sum); werr != nil {
		p.log.Warn("failed to write summary record", zap.Error(werr))
	}

	return res, runErr
}

func (p *Pipeline) steps() []step {
	return []step{
		{StepPull, p.pull},
		{StepSecrets, p.secrets},
		{StepLogin, p.login},
		{StepExtract, p.extract},
		{StepDecrypt, p.decrypt},
		{StepStatus, p.status},
		{StepCommit, p.commit},
		{StepPush, p.push},
	}
}

func (p *Pipeline) pull(ctx context.Context, _ *State) error {
	return p.git.PullRebase(ctx)
}

// secrets loads credentials and the decryption key together, so a
// missing key file stops the run before registry login or extraction.
func (p *Pipeline) secrets(_ context.Context, st *State) error {
	sec, err := manifest.LoadSecrets(p.cfg.SecretsPath)
	if err != nil {
		return err
	}
	st.Secrets = *sec

	key, err := manifest.LoadKey(p.cfg.KeyPath)
	if err != nil {
		return err
	}
	st.Key = key
	return nil
}

func (p *Pipeline) login(ctx context.Context, st *State) error {
	return p.auth.Login(ctx, st.Secrets.DockerLogin, st.Secrets.DockerToken)
}

func (p *Pipeline) extract(ctx context.Context, st *State) error {
	creds := extractor.Credentials{Email: st.Secrets.Email, Password: st.Secrets.Password}
	return p.ext.Run(ctx, creds, p.cfg.RepoDir, p.cfg.CacheDir)
}

func (p *Pipeline) decrypt(ctx context.Context, st *State) error {
	return p.ext.Decrypt(ctx, p.cfg.DecryptInput, p.cfg.DecryptOutput, st.Key)
}

func (p *Pipeline) status(ctx context.Context, st *State) error {
	statuses, err := p.git.Status(ctx)
	if err != nil {
		return err
	}
	st.Statuses = statuses
	st.Changes = changeset.New(statuses, p.cfg.DataPatterns)
	st.CommitMessage = st.Changes.Message()
	return nil
}

// commit stages everything and commits with the synthesized message.
// An empty working tree is not an error; the run continues to push so
// previously unpushed commits still go out.
func (p *Pipeline) commit(ctx context.Context, st *State) error {
	if st.Changes.Empty() {
		p.log.Info("working tree clean, skipping commit")
		return nil
	}
	if err := p.git.AddAll(ctx); err != nil {
		return err
	}
	committed, err := p.git.Commit(ctx, st.CommitMessage)
	if err != nil {
		return fmt.Errorf("commit %q: %w", st.CommitMessage, err)
	}
	st.Committed = committed
	return nil
}

func (p *Pipeline) push(ctx context.Context, _ *State) error {
	return p.git.Push(ctx)
}

// errorCode maps a failed step to a machine-readable error code.
func errorCode(stepName string) string {
	switch stepName {
	case StepPull, StepStatus, StepCommit, StepPush:
		return output.ErrCodeVCS
	case StepLogin, StepExtract, StepDecrypt:
		return output.ErrCodeExtractor
	default:
		return output.ErrCodeInternal
	}
}
