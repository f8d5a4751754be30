package envdetect

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	verrors "github.com/odvcencio/venvup/pkg/errors"
)

func stubLookPath(resolved map[string]string) func(string) (string, error) {
	return func(file string) (string, error) {
		if path, ok := resolved[file]; ok {
			return path, nil
		}
		return "", errors.New("not found")
	}
}

func TestDetector_DetectPython(t *testing.T) {
	tmpDir := t.TempDir()

	reqs := `websockets==12.0
pyaudio==0.2.14`
	if err := os.WriteFile(filepath.Join(tmpDir, "requirements.txt"), []byte(reqs), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".python-version"), []byte("3.11.4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	detector := NewDetector(tmpDir, []string{"python3", "python"})
	detector.SetLookPath(stubLookPath(map[string]string{"python3": "/usr/bin/python3"}))

	profile, err := detector.Detect()
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if profile.Python.Version != "3.11.4" {
		t.Errorf("Version = %q, want 3.11.4", profile.Python.Version)
	}
	if profile.Python.Source != ".python-version" {
		t.Errorf("Source = %q", profile.Python.Source)
	}
	if profile.Python.Interpreter != "/usr/bin/python3" {
		t.Errorf("Interpreter = %q", profile.Python.Interpreter)
	}
	if len(profile.Lockfiles) != 1 || profile.Lockfiles[0] != "requirements.txt" {
		t.Errorf("Lockfiles = %v", profile.Lockfiles)
	}
	if profile.CacheKey == "" {
		t.Error("expected a cache key")
	}
}

func TestDetector_VersionFromPyproject(t *testing.T) {
	tmpDir := t.TempDir()

	pyproject := `[project]
name = "tts-demo"
requires-python = ">=3.10"
`
	if err := os.WriteFile(filepath.Join(tmpDir, "pyproject.toml"), []byte(pyproject), 0644); err != nil {
		t.Fatal(err)
	}

	detector := NewDetector(tmpDir, []string{"python3"})
	detector.SetLookPath(stubLookPath(nil))

	profile, err := detector.Detect()
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if profile.Python.Version != "3.10" {
		t.Errorf("Version = %q, want 3.10", profile.Python.Version)
	}
	if profile.Python.Source != "pyproject.toml" {
		t.Errorf("Source = %q", profile.Python.Source)
	}
}

func TestDetector_NotPythonProject(t *testing.T) {
	detector := NewDetector(t.TempDir(), []string{"python3"})
	detector.SetLookPath(stubLookPath(nil))

	_, err := detector.Detect()
	if err == nil {
		t.Fatal("expected error for empty directory")
	}
	if !verrors.IsCode(err, verrors.ErrCodeProjectNotPython) {
		t.Errorf("error = %v, want PROJECT_NOT_PYTHON", err)
	}
}

func TestDetector_UnpinnedVersion(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "requirements.txt"), []byte("requests\n"), 0644); err != nil {
		t.Fatal(err)
	}

	detector := NewDetector(tmpDir, []string{"python3"})
	detector.SetLookPath(stubLookPath(nil))

	profile, err := detector.Detect()
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if profile.Python.Version != "latest" || profile.Python.Source != "default" {
		t.Errorf("got %q from %q, want latest/default", profile.Python.Version, profile.Python.Source)
	}
}

func TestDetector_CacheHitRefreshesInterpreter(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "requirements.txt"), []byte("requests\n"), 0644); err != nil {
		t.Fatal(err)
	}

	detector := NewDetector(tmpDir, []string{"python3"})
	detector.SetLookPath(stubLookPath(nil))
	if _, err := detector.Detect(); err != nil {
		t.Fatal(err)
	}

	// Same lockfiles, but python3 appeared on PATH since the cached run.
	detector.SetLookPath(stubLookPath(map[string]string{"python3": "/opt/python3"}))
	profile, err := detector.Detect()
	if err != nil {
		t.Fatal(err)
	}
	if profile.Python.Interpreter != "/opt/python3" {
		t.Errorf("Interpreter = %q, want refreshed /opt/python3", profile.Python.Interpreter)
	}
}

func TestDetector_RequireInterpreter(t *testing.T) {
	detector := NewDetector(t.TempDir(), []string{"python3", "python"})
	detector.SetLookPath(stubLookPath(map[string]string{"python": "/usr/bin/python"}))

	path, err := detector.RequireInterpreter()
	if err != nil {
		t.Fatalf("RequireInterpreter() error = %v", err)
	}
	if path != "/usr/bin/python" {
		t.Errorf("path = %q", path)
	}

	detector.SetLookPath(stubLookPath(nil))
	_, err = detector.RequireInterpreter()
	if !verrors.IsCode(err, verrors.ErrCodeInterpreterNotFound) {
		t.Errorf("error = %v, want INTERPRETER_NOT_FOUND", err)
	}
}

func TestCache_RoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir())

	profile := &Profile{
		Python:    PythonInfo{Version: "3.11", Source: ".python-version"},
		Lockfiles: []string{"requirements.txt"},
		CacheKey:  "abc123",
	}

	if err := cache.Set("abc123", profile); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := cache.Get("abc123")
	if !ok {
		t.Fatal("Get() miss after Set()")
	}
	if got.Python.Version != "3.11" {
		t.Errorf("Version = %q", got.Python.Version)
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("Get() should miss for unknown key")
	}
}

func TestCache_SetEvictsStaleKeys(t *testing.T) {
	cache := NewCache(t.TempDir())
	profile := &Profile{CacheKey: "old"}

	if err := cache.Set("old", profile); err != nil {
		t.Fatal(err)
	}
	profile.CacheKey = "new"
	if err := cache.Set("new", profile); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Get("old"); ok {
		t.Error("stale key should be evicted by Set")
	}
	if _, ok := cache.Get("new"); !ok {
		t.Error("fresh key should survive")
	}
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache(t.TempDir())
	if err := cache.Set("abc", &Profile{CacheKey: "abc"}); err != nil {
		t.Fatal(err)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok := cache.Get("abc"); ok {
		t.Error("Clear() should remove every entry")
	}
}

func TestCacheKeyChangesWithLockfiles(t *testing.T) {
	tmpDir := t.TempDir()
	reqPath := filepath.Join(tmpDir, "requirements.txt")
	if err := os.WriteFile(reqPath, []byte("requests==2.31.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	key1 := computeCacheKey(tmpDir, pythonSignature.Lockfiles)

	if err := os.WriteFile(reqPath, []byte("requests==2.32.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	key2 := computeCacheKey(tmpDir, pythonSignature.Lockfiles)

	if key1 == key2 {
		t.Error("cache key should change when a lockfile changes")
	}
}
