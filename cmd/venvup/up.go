package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/odvcencio/venvup/pkg/config"
	"github.com/odvcencio/venvup/pkg/envdetect"
	verrors "github.com/odvcencio/venvup/pkg/errors"
	"github.com/odvcencio/venvup/pkg/logging"
	"github.com/odvcencio/venvup/pkg/setup"
	"github.com/odvcencio/venvup/pkg/terminal"
	"github.com/odvcencio/venvup/pkg/venv"
)

type bootstrapParams struct {
	clear       bool
	skipUpgrade bool
}

func runUpCommand(args []string) error {
	fs := flag.NewFlagSet("up", flag.ContinueOnError)
	clear := fs.Bool("clear", false, "remove an existing environment before creating")
	skipUpgrade := fs.Bool("skip-upgrade", false, "skip upgrading pip inside the environment")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, root, err := loadConfigAndRoot()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer := newWriter()
	return bootstrapProject(ctx, writer, cfg, root, bootstrapParams{
		clear:       *clear,
		skipUpgrade: *skipUpgrade,
	})
}

// bootstrapProject runs the full pipeline for one project and prints the
// activation instructions on success. Shared by up and watch.
func bootstrapProject(ctx context.Context, writer *terminal.Writer, cfg *config.Config, root string, params bootstrapParams) error {
	manifestPath := cfg.ManifestPath(root)

	detector := envdetect.NewDetector(root, cfg.Python.Candidates)
	profile, err := detector.Detect()
	if err != nil {
		return err
	}

	// Walk the user through missing prerequisites when we can ask.
	checker := setup.NewChecker(cfg.Python.Candidates, manifestPath)
	if missing, _ := checker.CheckAll(); len(missing) > 0 && isInteractiveTerminal() {
		if err := checker.RunWizard(missing); err != nil {
			return err
		}
	}

	interpreter, err := detector.RequireInterpreter()
	if err != nil {
		return err
	}

	if info, err := os.Stat(manifestPath); err != nil || info.IsDir() {
		return verrors.New(verrors.ErrCodeManifestMissing, "dependency manifest not found").
			WithContext("path", manifestPath).
			WithUserMessage("No dependency manifest was found").
			WithRemediation("Create " + filepath.Base(manifestPath) + " listing your dependencies")
	}

	logger := newRunLogger(cfg)
	defer logger.Close()

	logger.Info(logging.CategoryDetect, "interpreter_resolved", "resolved python interpreter", map[string]any{
		"interpreter": interpreter,
		"version":     profile.Python.Version,
		"source":      profile.Python.Source,
	})

	boot := venv.New(venv.Options{
		ProjectRoot:      root,
		EnvDir:           cfg.EnvPath(root),
		ManifestPath:     manifestPath,
		Interpreter:      interpreter,
		UpgradeInstaller: cfg.Steps.UpgradeInstaller && !params.skipUpgrade,
		Clear:            params.clear,
		CreateTimeout:    cfg.Steps.CreateTimeout,
		UpgradeTimeout:   cfg.Steps.UpgradeTimeout,
		InstallTimeout:   cfg.Steps.InstallTimeout,
	}, logger)

	spinner := newSpinner("Preparing " + cfg.Env.Dir)
	spinner.Start()
	results, err := boot.Run(ctx)
	if err != nil {
		spinner.StopWithError("bootstrap failed")
		printRemediation(writer, err)
		return err
	}
	spinner.StopWithSuccess("Environment ready")

	reportSteps(writer, cfg, results)

	layout := boot.Layout()
	writer.Newline()
	writer.Confirm("Activate the virtual environment with: %s", layout.ActivationHint(root))
	writer.Confirm("Then run: python %s", cfg.Project.Entrypoint)
	return nil
}

func reportSteps(writer *terminal.Writer, cfg *config.Config, results []venv.StepResult) {
	for _, res := range results {
		switch res.Name {
		case venv.StepCreateEnv:
			if res.Reused {
				writer.Dim("Reusing virtual environment at %s", cfg.Env.Dir)
			} else {
				writer.Success("Created virtual environment at %s", cfg.Env.Dir)
			}
		case venv.StepUpgradeInstaller:
			if res.Skipped {
				writer.Dim("Skipped pip upgrade")
			} else {
				writer.Success("Upgraded pip")
			}
		case venv.StepInstallManifest:
			writer.Success("Installed %d requirements from %s", res.Packages, cfg.Manifest.Path)
		}
	}
}

// printRemediation renders a structured error's remediation tips as a
// markdown block under the failure line.
func printRemediation(writer *terminal.Writer, err error) {
	var structured *verrors.Error
	if !errors.As(err, &structured) || len(structured.Remediation) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString("**" + structured.Friendly() + "**\n\n")
	for _, tip := range structured.Remediation {
		sb.WriteString("- " + tip + "\n")
	}
	writer.Markdown(sb.String())
}

// newRunLogger opens the per-run JSONL log, degrading to a no-op logger
// when the log directory is unavailable.
func newRunLogger(cfg *config.Config) *logging.Logger {
	logDir, err := resolveLogDir(cfg)
	if err != nil {
		return logging.NewNopLogger()
	}
	logger, err := logging.NewLogger(logDir, logging.NewRunID())
	if err != nil {
		return logging.NewNopLogger()
	}
	logger.SetMinLevel(logging.Level(cfg.Logging.MinLevel))
	return logger
}
