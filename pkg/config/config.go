package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	verrors "github.com/odvcencio/venvup/pkg/errors"
)

// Default configuration values exported for documentation and validation
const (
	DefaultEnvDir         = "venv"
	DefaultManifestPath   = "requirements.txt"
	DefaultEntrypoint     = "main.py"
	DefaultCreateTimeout  = 2 * time.Minute
	DefaultUpgradeTimeout = 3 * time.Minute
	DefaultInstallTimeout = 15 * time.Minute
	DefaultWatchDebounce  = 500 * time.Millisecond
	DefaultLogLevel       = "info"
)

// DefaultInterpreterCandidates are probed in order when python.candidates
// is not configured.
var DefaultInterpreterCandidates = []string{"python3", "python"}

// Config represents the complete venvup configuration
type Config struct {
	Python   PythonConfig   `yaml:"python"`
	Env      EnvConfig      `yaml:"env"`
	Manifest ManifestConfig `yaml:"manifest"`
	Steps    StepsConfig    `yaml:"steps"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
	Project  ProjectConfig  `yaml:"project"`
}

// PythonConfig selects the interpreter used to create the environment
type PythonConfig struct {
	// Candidates are binary names or absolute paths, probed in order.
	Candidates []string `yaml:"candidates"`
}

// EnvConfig describes the virtual environment target
type EnvConfig struct {
	Dir string `yaml:"dir"`
}

// ManifestConfig locates the dependency manifest
type ManifestConfig struct {
	Path string `yaml:"path"`
}

// StepsConfig controls the bootstrap pipeline
type StepsConfig struct {
	UpgradeInstaller bool          `yaml:"upgrade_installer"`
	CreateTimeout    time.Duration `yaml:"create_timeout"`
	UpgradeTimeout   time.Duration `yaml:"upgrade_timeout"`
	InstallTimeout   time.Duration `yaml:"install_timeout"`
}

// WatchConfig controls manifest watching
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig controls structured run logs
type LoggingConfig struct {
	Dir      string `yaml:"dir"`
	MinLevel string `yaml:"min_level"`
}

// ProjectConfig pins the project the tool operates on
type ProjectConfig struct {
	RootPath   string `yaml:"root_path"`
	Entrypoint string `yaml:"entrypoint"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Python: PythonConfig{
			Candidates: append([]string{}, DefaultInterpreterCandidates...),
		},
		Env:      EnvConfig{Dir: DefaultEnvDir},
		Manifest: ManifestConfig{Path: DefaultManifestPath},
		Steps: StepsConfig{
			UpgradeInstaller: true,
			CreateTimeout:    DefaultCreateTimeout,
			UpgradeTimeout:   DefaultUpgradeTimeout,
			InstallTimeout:   DefaultInstallTimeout,
		},
		Watch:   WatchConfig{Debounce: DefaultWatchDebounce},
		Logging: LoggingConfig{MinLevel: DefaultLogLevel},
		Project: ProjectConfig{Entrypoint: DefaultEntrypoint},
	}
}

// Load builds the effective configuration. When explicitPath is non-empty
// only that file is loaded on top of the defaults; otherwise the home-level
// file and then the project-level file are merged in, either being optional.
func Load(explicitPath, projectRoot string) (*Config, error) {
	cfg := DefaultConfig()

	if explicitPath != "" {
		if err := loadAndMerge(cfg, explicitPath); err != nil {
			return nil, verrors.Wrap(err, verrors.ErrCodeConfigLoad, "loading config").
				WithContext("path", explicitPath)
		}
		return cfg, cfg.Validate()
	}

	for _, path := range candidatePaths(projectRoot) {
		if err := loadAndMerge(cfg, path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, verrors.Wrap(err, verrors.ErrCodeConfigLoad, "loading config").
				WithContext("path", path)
		}
	}

	return cfg, cfg.Validate()
}

// EffectivePath returns the config file venvup would read for the project,
// whether or not it exists yet.
func EffectivePath(projectRoot string) string {
	paths := candidatePaths(projectRoot)
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return paths[len(paths)-1]
}

func candidatePaths(projectRoot string) []string {
	paths := []string{}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".venvup", "config.yaml"))
	}
	if projectRoot == "" {
		projectRoot = "."
	}
	paths = append(paths, filepath.Join(projectRoot, ".venvup.yaml"))
	return paths
}

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs merges override into base. Zero values are treated as unset,
// except booleans, which consult the raw document.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override == nil {
		return
	}

	if len(override.Python.Candidates) > 0 {
		base.Python.Candidates = override.Python.Candidates
	}
	if override.Env.Dir != "" {
		base.Env.Dir = override.Env.Dir
	}
	if override.Manifest.Path != "" {
		base.Manifest.Path = override.Manifest.Path
	}
	if boolFieldSet(raw, "steps", "upgrade_installer") {
		base.Steps.UpgradeInstaller = override.Steps.UpgradeInstaller
	}
	if override.Steps.CreateTimeout != 0 {
		base.Steps.CreateTimeout = override.Steps.CreateTimeout
	}
	if override.Steps.UpgradeTimeout != 0 {
		base.Steps.UpgradeTimeout = override.Steps.UpgradeTimeout
	}
	if override.Steps.InstallTimeout != 0 {
		base.Steps.InstallTimeout = override.Steps.InstallTimeout
	}
	if override.Watch.Debounce != 0 {
		base.Watch.Debounce = override.Watch.Debounce
	}
	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}
	if override.Logging.MinLevel != "" {
		base.Logging.MinLevel = override.Logging.MinLevel
	}
	if override.Project.RootPath != "" {
		base.Project.RootPath = override.Project.RootPath
	}
	if override.Project.Entrypoint != "" {
		base.Project.Entrypoint = override.Project.Entrypoint
	}
}

// boolFieldSet reports whether the raw YAML document explicitly sets the
// boolean at the given key path.
func boolFieldSet(raw map[string]any, path ...string) bool {
	current := raw
	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return false
		}
		if i == len(path)-1 {
			_, isBool := value.(bool)
			return isBool
		}
		next, ok := value.(map[string]any)
		if !ok {
			return false
		}
		current = next
	}
	return false
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if len(c.Python.Candidates) == 0 {
		return verrors.New(verrors.ErrCodeConfigInvalid, "python.candidates must not be empty")
	}
	for _, cand := range c.Python.Candidates {
		if strings.TrimSpace(cand) == "" {
			return verrors.New(verrors.ErrCodeConfigInvalid, "python.candidates contains an empty entry")
		}
	}
	if strings.TrimSpace(c.Env.Dir) == "" {
		return verrors.New(verrors.ErrCodeConfigInvalid, "env.dir must not be empty")
	}
	if filepath.IsAbs(c.Env.Dir) {
		return verrors.New(verrors.ErrCodeConfigInvalid, "env.dir must be project-relative").
			WithContext("dir", c.Env.Dir)
	}
	if strings.TrimSpace(c.Manifest.Path) == "" {
		return verrors.New(verrors.ErrCodeConfigInvalid, "manifest.path must not be empty")
	}
	if c.Steps.CreateTimeout < 0 || c.Steps.UpgradeTimeout < 0 || c.Steps.InstallTimeout < 0 {
		return verrors.New(verrors.ErrCodeConfigInvalid, "step timeouts must not be negative")
	}
	switch c.Logging.MinLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return verrors.New(verrors.ErrCodeConfigInvalid, "logging.min_level must be debug, info, warn, or error").
			WithContext("min_level", c.Logging.MinLevel)
	}
	return nil
}

// EnvPath returns the absolute environment directory for a project root.
func (c *Config) EnvPath(projectRoot string) string {
	return filepath.Join(projectRoot, c.Env.Dir)
}

// ManifestPath returns the absolute manifest path for a project root.
func (c *Config) ManifestPath(projectRoot string) string {
	if filepath.IsAbs(c.Manifest.Path) {
		return c.Manifest.Path
	}
	return filepath.Join(projectRoot, c.Manifest.Path)
}
