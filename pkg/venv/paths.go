package venv

import (
	"os"
	"path/filepath"
	"runtime"
)

// Layout resolves paths inside a virtual environment directory. The
// bin/ vs Scripts\ split follows the venv module's own layout.
type Layout struct {
	Root string
}

// NewLayout creates a layout for the given environment root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) binDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(l.Root, "Scripts")
	}
	return filepath.Join(l.Root, "bin")
}

// Python returns the interpreter inside the environment.
func (l Layout) Python() string {
	name := "python"
	if runtime.GOOS == "windows" {
		name = "python.exe"
	}
	return filepath.Join(l.binDir(), name)
}

// Activate returns the activation script path.
func (l Layout) Activate() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(l.binDir(), "activate.bat")
	}
	return filepath.Join(l.binDir(), "activate")
}

// PyvenvCfg returns the marker file the venv module writes at creation.
func (l Layout) PyvenvCfg() string {
	return filepath.Join(l.Root, "pyvenv.cfg")
}

// Exists reports whether the environment root directory exists.
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

// Valid reports whether the root looks like a usable virtual environment:
// the pyvenv.cfg marker and the inner interpreter are both present.
func (l Layout) Valid() bool {
	if _, err := os.Stat(l.PyvenvCfg()); err != nil {
		return false
	}
	if _, err := os.Stat(l.Python()); err != nil {
		return false
	}
	return true
}

// ActivationHint returns the command a user runs to activate the
// environment, relative to the project root when possible.
func (l Layout) ActivationHint(projectRoot string) string {
	activate := l.Activate()
	if rel, err := filepath.Rel(projectRoot, activate); err == nil && !filepath.IsAbs(rel) {
		activate = rel
	}
	if runtime.GOOS == "windows" {
		return activate
	}
	return "source " + activate
}
