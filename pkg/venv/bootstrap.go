// Package venv drives the bootstrap pipeline: create the virtual
// environment, upgrade the installer inside it, install the manifest.
// Steps run strictly in order and the first failure aborts the run.
package venv

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	verrors "github.com/odvcencio/venvup/pkg/errors"
	"github.com/odvcencio/venvup/pkg/executil"
	"github.com/odvcencio/venvup/pkg/logging"
	"github.com/odvcencio/venvup/pkg/manifest"
)

// StepName identifies a bootstrap pipeline step.
type StepName string

const (
	StepCreateEnv        StepName = "create_env"
	StepUpgradeInstaller StepName = "upgrade_installer"
	StepInstallManifest  StepName = "install_manifest"
)

// StepResult records the outcome of one pipeline step.
type StepResult struct {
	Name     StepName
	Skipped  bool
	Reused   bool // create step found a valid environment already in place
	Duration time.Duration
	Packages int // install step: named requirements in the manifest
	Err      error
}

// Options configures a bootstrap run.
type Options struct {
	ProjectRoot  string
	EnvDir       string // absolute environment directory
	ManifestPath string // absolute manifest path
	Interpreter  string // resolved python binary used for env creation

	UpgradeInstaller bool
	Clear            bool // remove an existing environment first

	CreateTimeout  time.Duration
	UpgradeTimeout time.Duration
	InstallTimeout time.Duration
}

// Bootstrapper executes the pipeline.
type Bootstrapper struct {
	opts Options
	log  *logging.Logger

	// newRunner allows tests to intercept every spawned command.
	newRunner func(dir string, timeout time.Duration) *executil.Runner
}

// New creates a Bootstrapper. log must not be nil; use logging.NewNopLogger
// when run logs are unavailable.
func New(opts Options, log *logging.Logger) *Bootstrapper {
	return &Bootstrapper{
		opts:      opts,
		log:       log,
		newRunner: executil.New,
	}
}

// SetRunnerFactory overrides runner construction, for tests.
func (b *Bootstrapper) SetRunnerFactory(fn func(dir string, timeout time.Duration) *executil.Runner) {
	b.newRunner = fn
}

// Layout returns the environment layout for this run.
func (b *Bootstrapper) Layout() Layout {
	return NewLayout(b.opts.EnvDir)
}

// Run executes the pipeline. It returns the results of all steps that ran;
// on error the failing step is last and carries the error.
func (b *Bootstrapper) Run(ctx context.Context) ([]StepResult, error) {
	unlock, err := b.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	results := make([]StepResult, 0, 3)

	create := b.createEnv(ctx)
	results = append(results, create)
	if create.Err != nil {
		return results, create.Err
	}

	upgrade := b.upgradeInstaller(ctx)
	results = append(results, upgrade)
	if upgrade.Err != nil {
		return results, upgrade.Err
	}

	install := b.installManifest(ctx)
	results = append(results, install)
	if install.Err != nil {
		return results, install.Err
	}

	return results, nil
}

// acquireLock guards the environment against concurrent bootstrap runs.
// The lock file sits next to the environment directory.
func (b *Bootstrapper) acquireLock() (func(), error) {
	lockPath := b.opts.EnvDir + ".lock"

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, verrors.New(verrors.ErrCodeEnvLocked, "another bootstrap appears to be running").
				WithContext("lock", lockPath).
				WithUserMessage("The environment is locked by another venvup run").
				WithRemediation("Wait for the other run to finish",
					"If no other run is active, delete "+lockPath)
		}
		return nil, verrors.Wrap(err, verrors.ErrCodeInternal, "creating lock file").
			WithContext("lock", lockPath)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return func() { os.Remove(lockPath) }, nil
}

func (b *Bootstrapper) createEnv(ctx context.Context) StepResult {
	start := time.Now()
	result := StepResult{Name: StepCreateEnv}
	layout := b.Layout()

	if b.opts.Clear && layout.Exists() {
		if err := os.RemoveAll(b.opts.EnvDir); err != nil {
			result.Err = verrors.Wrap(err, verrors.ErrCodeEnvCreate, "removing existing environment").
				WithContext("dir", b.opts.EnvDir)
			result.Duration = time.Since(start)
			return result
		}
		b.log.Info(logging.CategoryEnv, "env_cleared", "removed existing environment",
			map[string]any{"dir": b.opts.EnvDir})
	}

	if layout.Exists() {
		if layout.Valid() {
			// Silent reuse. Re-running venv on top would also be safe, but
			// skipping keeps the second run fast and the behavior explicit.
			result.Reused = true
			result.Duration = time.Since(start)
			b.log.Info(logging.CategoryEnv, "env_reused", "reusing existing environment",
				map[string]any{"dir": b.opts.EnvDir})
			return result
		}
		result.Err = verrors.New(verrors.ErrCodeEnvCorrupt, "target exists but is not a virtual environment").
			WithContext("dir", b.opts.EnvDir).
			WithUserMessage("The environment directory exists but does not look like a venv").
			WithRemediation("Run with --clear to recreate it, or remove " + b.opts.EnvDir)
		result.Duration = time.Since(start)
		return result
	}

	runner := b.newRunner(b.opts.ProjectRoot, b.opts.CreateTimeout)
	res := runner.Run(ctx, b.opts.Interpreter, "-m", "venv", b.opts.EnvDir)
	result.Duration = time.Since(start)

	if res.Failed() {
		result.Err = stepError(verrors.ErrCodeEnvCreate, "creating virtual environment", res).
			WithUserMessage("Could not create the virtual environment")
		b.log.Error(logging.CategoryEnv, "env_create_failed", result.Err.Error(), nil)
		return result
	}

	b.log.Info(logging.CategoryEnv, "env_created", "created virtual environment",
		map[string]any{"dir": b.opts.EnvDir, "interpreter": b.opts.Interpreter})
	return result
}

func (b *Bootstrapper) upgradeInstaller(ctx context.Context) StepResult {
	start := time.Now()
	result := StepResult{Name: StepUpgradeInstaller}

	if !b.opts.UpgradeInstaller {
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	// Always drive pip through the environment's own interpreter so the
	// upgrade can never touch a system installation.
	runner := b.newRunner(b.opts.ProjectRoot, b.opts.UpgradeTimeout)
	res := runner.Run(ctx, b.Layout().Python(), "-m", "pip", "install", "--upgrade", "pip")
	result.Duration = time.Since(start)

	if res.Failed() {
		result.Err = stepError(verrors.ErrCodePipUpgrade, "upgrading pip", res).
			WithUserMessage("Could not upgrade pip inside the environment").
			WithRetryable(true)
		b.log.Error(logging.CategoryInstall, "pip_upgrade_failed", result.Err.Error(), nil)
		return result
	}

	b.log.Info(logging.CategoryInstall, "pip_upgraded", "upgraded pip", nil)
	return result
}

func (b *Bootstrapper) installManifest(ctx context.Context) StepResult {
	start := time.Now()
	result := StepResult{Name: StepInstallManifest}

	// Parse before spawning pip: a missing or cyclic manifest fails the run
	// with a precise error instead of pip's generic one.
	m, err := manifest.ParseFile(b.opts.ManifestPath)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		b.log.Error(logging.CategoryManifest, "manifest_invalid", err.Error(),
			map[string]any{"path": b.opts.ManifestPath})
		return result
	}
	result.Packages = len(m.Names())

	runner := b.newRunner(b.opts.ProjectRoot, b.opts.InstallTimeout)
	res := runner.Run(ctx, b.Layout().Python(), "-m", "pip", "install", "-r", b.opts.ManifestPath)
	result.Duration = time.Since(start)

	if res.Failed() {
		result.Err = stepError(verrors.ErrCodePipInstall, "installing manifest", res).
			WithContext("manifest", b.opts.ManifestPath).
			WithUserMessage("Dependency installation failed").
			WithRetryable(true)
		b.log.Error(logging.CategoryInstall, "pip_install_failed", result.Err.Error(),
			map[string]any{"manifest": b.opts.ManifestPath})
		return result
	}

	b.log.Info(logging.CategoryInstall, "manifest_installed", "installed dependency manifest",
		map[string]any{"manifest": b.opts.ManifestPath, "packages": result.Packages})
	return result
}

// stepError converts a failed command result into a structured error,
// folding the tail of stderr into the message.
func stepError(code verrors.ErrorCode, action string, res *executil.Result) *verrors.Error {
	if res.Killed {
		return verrors.New(verrors.ErrCodeStepTimeout, action+" timed out").
			WithContext("duration", res.Duration.Round(time.Millisecond).String())
	}

	detail := strings.TrimSpace(res.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(res.Stdout)
	}
	if lines := strings.Split(detail, "\n"); len(lines) > 5 {
		detail = strings.Join(lines[len(lines)-5:], "\n")
	}

	var err *verrors.Error
	if res.Error != nil {
		err = verrors.Wrap(res.Error, code, action+" failed")
	} else {
		err = verrors.New(code, fmt.Sprintf("%s failed with exit code %d", action, res.ExitCode))
	}
	if detail != "" {
		err = err.WithContext("output", detail)
	}
	return err
}
