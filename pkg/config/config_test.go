package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Env.Dir != DefaultEnvDir {
		t.Errorf("Env.Dir = %q, want %q", cfg.Env.Dir, DefaultEnvDir)
	}
	if cfg.Manifest.Path != DefaultManifestPath {
		t.Errorf("Manifest.Path = %q, want %q", cfg.Manifest.Path, DefaultManifestPath)
	}
	if !cfg.Steps.UpgradeInstaller {
		t.Error("installer upgrade should default to on")
	}
	if len(cfg.Python.Candidates) == 0 {
		t.Fatal("expected default interpreter candidates")
	}
	if cfg.Python.Candidates[0] != "python3" {
		t.Errorf("first candidate = %q, want python3", cfg.Python.Candidates[0])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_ProjectOverride(t *testing.T) {
	root := t.TempDir()
	content := `
python:
  candidates: ["python3.12"]
env:
  dir: .venv
manifest:
  path: requirements-dev.txt
steps:
  upgrade_installer: false
  install_timeout: 30m
project:
  entrypoint: server.py
`
	if err := os.WriteFile(filepath.Join(root, ".venvup.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Env.Dir != ".venv" {
		t.Errorf("Env.Dir = %q, want .venv", cfg.Env.Dir)
	}
	if cfg.Manifest.Path != "requirements-dev.txt" {
		t.Errorf("Manifest.Path = %q", cfg.Manifest.Path)
	}
	if cfg.Steps.UpgradeInstaller {
		t.Error("upgrade_installer: false should override the default")
	}
	if cfg.Steps.InstallTimeout != 30*time.Minute {
		t.Errorf("InstallTimeout = %v, want 30m", cfg.Steps.InstallTimeout)
	}
	if cfg.Steps.CreateTimeout != DefaultCreateTimeout {
		t.Errorf("CreateTimeout = %v, want default preserved", cfg.Steps.CreateTimeout)
	}
	if cfg.Project.Entrypoint != "server.py" {
		t.Errorf("Entrypoint = %q, want server.py", cfg.Project.Entrypoint)
	}
	if len(cfg.Python.Candidates) != 1 || cfg.Python.Candidates[0] != "python3.12" {
		t.Errorf("Candidates = %v", cfg.Python.Candidates)
	}
}

func TestLoad_MissingProjectFileUsesDefaults(t *testing.T) {
	cfg, err := Load("", t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env.Dir != DefaultEnvDir {
		t.Errorf("Env.Dir = %q, want default", cfg.Env.Dir)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("env:\n  dir: custom-venv\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env.Dir != "custom-venv" {
		t.Errorf("Env.Dir = %q, want custom-venv", cfg.Env.Dir)
	}
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".venvup.yaml"), []byte("env: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load("", root); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no candidates", func(c *Config) { c.Python.Candidates = nil }, true},
		{"blank candidate", func(c *Config) { c.Python.Candidates = []string{" "} }, true},
		{"empty env dir", func(c *Config) { c.Env.Dir = "" }, true},
		{"absolute env dir", func(c *Config) { c.Env.Dir = "/opt/venv" }, true},
		{"empty manifest", func(c *Config) { c.Manifest.Path = "" }, true},
		{"negative timeout", func(c *Config) { c.Steps.InstallTimeout = -time.Second }, true},
		{"bad log level", func(c *Config) { c.Logging.MinLevel = "verbose" }, true},
		{"warn log level", func(c *Config) { c.Logging.MinLevel = "warn" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveProjectRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.RootPath = t.TempDir()

	got := ResolveProjectRoot(cfg)
	if got != cfg.Project.RootPath {
		t.Errorf("ResolveProjectRoot() = %q, want %q", got, cfg.Project.RootPath)
	}

	cwd, _ := os.Getwd()
	if got := ResolveProjectRoot(DefaultConfig()); got != cwd {
		t.Errorf("ResolveProjectRoot() without override = %q, want cwd %q", got, cwd)
	}
}

func TestEnvAndManifestPaths(t *testing.T) {
	cfg := DefaultConfig()
	root := "/tmp/project"

	if got := cfg.EnvPath(root); got != filepath.Join(root, "venv") {
		t.Errorf("EnvPath() = %q", got)
	}
	if got := cfg.ManifestPath(root); got != filepath.Join(root, "requirements.txt") {
		t.Errorf("ManifestPath() = %q", got)
	}

	cfg.Manifest.Path = "/abs/reqs.txt"
	if got := cfg.ManifestPath(root); got != "/abs/reqs.txt" {
		t.Errorf("absolute ManifestPath() = %q", got)
	}
}
