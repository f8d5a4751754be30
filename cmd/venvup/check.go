package main

import (
	"os"
	"strings"

	"github.com/odvcencio/venvup/pkg/envdetect"
	verrors "github.com/odvcencio/venvup/pkg/errors"
	"github.com/odvcencio/venvup/pkg/manifest"
	"github.com/odvcencio/venvup/pkg/venv"
)

// runCheckCommand reports project status without touching anything.
func runCheckCommand(args []string) error {
	cfg, root, err := loadConfigAndRoot()
	if err != nil {
		return err
	}

	writer := newWriter()
	writer.Header("venvup check")
	writer.Println("Project root: %s", root)

	var firstProblem error

	detector := envdetect.NewDetector(root, cfg.Python.Candidates)
	profile, err := detector.Detect()
	if err != nil {
		if !verrors.IsCode(err, verrors.ErrCodeProjectNotPython) {
			return err
		}
		// Not a Python project yet: keep reporting so the user sees what
		// venvup would need.
		profile = &envdetect.Profile{}
		if path, rerr := detector.RequireInterpreter(); rerr == nil {
			profile.Python = envdetect.PythonInfo{Interpreter: path, Version: "latest", Source: "default"}
		}
		firstProblem = err
	}

	if profile.Python.Interpreter != "" {
		writer.Success("Python %s (%s) at %s",
			profile.Python.Version, profile.Python.Source, profile.Python.Interpreter)
	} else {
		writer.Error("no python interpreter found (tried %s)", strings.Join(cfg.Python.Candidates, ", "))
		if _, err := detector.RequireInterpreter(); err != nil && firstProblem == nil {
			firstProblem = err
		}
	}

	if len(profile.Lockfiles) > 0 {
		writer.Println("Project markers: %s", strings.Join(profile.Lockfiles, ", "))
	} else {
		writer.Warn("no Python project markers found")
	}

	manifestPath := cfg.ManifestPath(root)
	if info, statErr := os.Stat(manifestPath); statErr == nil && !info.IsDir() {
		if m, parseErr := manifest.ParseFile(manifestPath); parseErr == nil {
			writer.Success("Manifest %s (%d requirements)", cfg.Manifest.Path, len(m.Names()))
			if !m.Pinned() {
				writer.Dim("Some requirements are unpinned")
			}
		} else {
			writer.Error("manifest %s is unreadable: %v", cfg.Manifest.Path, parseErr)
			if firstProblem == nil {
				firstProblem = parseErr
			}
		}
	} else {
		writer.Error("manifest %s not found", cfg.Manifest.Path)
		if firstProblem == nil {
			firstProblem = verrors.New(verrors.ErrCodeManifestMissing, "dependency manifest not found").
				WithContext("path", manifestPath)
		}
	}

	layout := venv.NewLayout(cfg.EnvPath(root))
	switch {
	case layout.Valid():
		writer.Success("Environment %s is ready", cfg.Env.Dir)
	case layout.Exists():
		writer.Warn("environment %s exists but looks corrupt; run 'venvup up --clear'", cfg.Env.Dir)
	default:
		writer.Println("Environment %s not created yet; run 'venvup up'", cfg.Env.Dir)
	}

	return firstProblem
}
