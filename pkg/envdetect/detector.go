// Package envdetect profiles a project directory for Python bootstrapping:
// which signature files are present, which interpreter version the project
// pins, and which interpreter binary is available to create the environment.
package envdetect

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	verrors "github.com/odvcencio/venvup/pkg/errors"
)

// pythonSignature marks a directory as a Python project.
var pythonSignature = Signature{
	Lockfiles:    []string{"requirements.txt", "pyproject.toml", "Pipfile", "setup.py", "setup.cfg"},
	VersionFile:  ".python-version",
	VersionRegex: `requires-python\s*=\s*"[^\d]*(\d+\.\d+)`,
}

// Detector scans a directory and builds a project profile
type Detector struct {
	rootPath   string
	candidates []string
	cache      *Cache

	// lookPath allows stubbing interpreter resolution in tests
	lookPath func(file string) (string, error)
}

// NewDetector creates a detector for the given root path. candidates are
// interpreter binary names probed in order.
func NewDetector(rootPath string, candidates []string) *Detector {
	return &Detector{
		rootPath:   rootPath,
		candidates: candidates,
		cache:      NewCache(filepath.Join(rootPath, ".venvup", "cache")),
		lookPath:   exec.LookPath,
	}
}

// SetLookPath overrides interpreter resolution, for tests.
func (d *Detector) SetLookPath(fn func(file string) (string, error)) {
	d.lookPath = fn
}

// Detect builds the profile, using the lockfile-keyed cache when the
// signature files have not changed. Interpreter resolution is never cached:
// PATH can change between runs.
func (d *Detector) Detect() (*Profile, error) {
	cacheKey := computeCacheKey(d.rootPath, pythonSignature.Lockfiles)
	if cached, ok := d.cache.Get(cacheKey); ok {
		cached.Python.Interpreter = d.resolveInterpreter()
		return cached, nil
	}

	lockfiles := d.findFiles(pythonSignature.Lockfiles)
	if len(lockfiles) == 0 {
		return nil, verrors.New(verrors.ErrCodeProjectNotPython, "no Python signature files found").
			WithContext("root", d.rootPath).
			WithUserMessage("This directory does not look like a Python project").
			WithRemediation("Add a requirements.txt or pyproject.toml, or run venvup from the project root")
	}

	version, source := d.extractVersion()
	profile := &Profile{
		Python: PythonInfo{
			Version: version,
			Source:  source,
		},
		Lockfiles:  lockfiles,
		DetectedAt: time.Now(),
		CacheKey:   cacheKey,
	}

	if err := d.cache.Set(cacheKey, profile); err != nil {
		return nil, err
	}

	profile.Python.Interpreter = d.resolveInterpreter()
	return profile, nil
}

// ClearCache drops any cached profile for this project.
func (d *Detector) ClearCache() error {
	return d.cache.Clear()
}

// RequireInterpreter returns the resolved interpreter or a structured error.
func (d *Detector) RequireInterpreter() (string, error) {
	if path := d.resolveInterpreter(); path != "" {
		return path, nil
	}
	return "", verrors.New(verrors.ErrCodeInterpreterNotFound, "no python interpreter on PATH").
		WithContext("candidates", strings.Join(d.candidates, ",")).
		WithUserMessage("No Python interpreter was found").
		WithRemediation("Install Python 3 and ensure it is on your PATH",
			"Or set python.candidates in .venvup.yaml to the binary you use")
}

func (d *Detector) resolveInterpreter() string {
	for _, candidate := range d.candidates {
		if candidate == "" {
			continue
		}
		if path, err := d.lookPath(candidate); err == nil {
			return path
		}
	}
	return ""
}

// extractVersion reads the pinned Python version, preferring
// .python-version over pyproject.toml's requires-python.
func (d *Detector) extractVersion() (version, source string) {
	versionPath := filepath.Join(d.rootPath, pythonSignature.VersionFile)
	if data, err := os.ReadFile(versionPath); err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			return v, pythonSignature.VersionFile
		}
	}

	pyprojectPath := filepath.Join(d.rootPath, "pyproject.toml")
	if data, err := os.ReadFile(pyprojectPath); err == nil {
		re := regexp.MustCompile(pythonSignature.VersionRegex)
		if matches := re.FindStringSubmatch(string(data)); len(matches) > 1 {
			return matches[1], "pyproject.toml"
		}
	}

	return "latest", "default"
}

// findFiles returns existing files from a list
func (d *Detector) findFiles(files []string) []string {
	found := []string{}
	for _, file := range files {
		if fileExists(filepath.Join(d.rootPath, file)) {
			found = append(found, file)
		}
	}
	return found
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
