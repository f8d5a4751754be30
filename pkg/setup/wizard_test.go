package setup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChecker_CheckAll(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "requirements.txt")

	// Force the interpreter check to fail and the manifest check to pass.
	checker := NewChecker([]string{"definitely-not-a-binary-9f2c"}, manifestPath)
	if err := os.WriteFile(manifestPath, []byte("requests\n"), 0644); err != nil {
		t.Fatal(err)
	}

	missing, err := checker.CheckAll()
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("got %d missing, want 1", len(missing))
	}
	if missing[0].Name != "Python interpreter" {
		t.Errorf("missing = %q", missing[0].Name)
	}
}

func TestChecker_CheckAll_MissingManifest(t *testing.T) {
	checker := NewChecker([]string{"sh"}, filepath.Join(t.TempDir(), "requirements.txt"))

	missing, err := checker.CheckAll()
	if err != nil {
		t.Fatalf("CheckAll() error = %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("got %d missing, want 1: %v", len(missing), missing)
	}
	if missing[0].Type != "file" {
		t.Errorf("missing type = %q, want file", missing[0].Type)
	}
}

func TestChecker_ManifestIsDirectory(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "requirements.txt")
	if err := os.Mkdir(manifestPath, 0755); err != nil {
		t.Fatal(err)
	}

	checker := NewChecker([]string{"sh"}, manifestPath)
	missing, _ := checker.CheckAll()
	if len(missing) != 1 {
		t.Errorf("a directory must not satisfy the manifest check: %v", missing)
	}
}

func TestRunWizard_NothingMissing(t *testing.T) {
	checker := NewChecker([]string{"sh"}, "unused")
	var out bytes.Buffer
	checker.SetIO(strings.NewReader(""), &out)

	if err := checker.RunWizard(nil); err != nil {
		t.Fatalf("RunWizard() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("wizard should be silent with nothing missing, wrote %q", out.String())
	}
}

func TestRunWizard_ManualDependency(t *testing.T) {
	checker := NewChecker(nil, "unused")
	var out bytes.Buffer
	checker.SetIO(strings.NewReader(""), &out)

	missing := []Dependency{{
		Name:     "Python interpreter",
		Type:     "binary",
		Prompt:   "Install Python 3.",
		DocsLink: "https://www.python.org/downloads/",
	}}

	if err := checker.RunWizard(missing); err != nil {
		t.Fatalf("RunWizard() error = %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Python interpreter") {
		t.Errorf("output missing dependency name: %q", text)
	}
	if !strings.Contains(text, "resolve this manually") {
		t.Errorf("manual dependencies should ask for manual resolution: %q", text)
	}
}

func TestRunWizard_InstallAccepted(t *testing.T) {
	checker := NewChecker(nil, "unused")
	var out bytes.Buffer
	checker.SetIO(strings.NewReader("\n"), &out)

	installed := false
	missing := []Dependency{{
		Name:        "requirements.txt",
		Type:        "file",
		InstallFunc: func() error { installed = true; return nil },
	}}

	if err := checker.RunWizard(missing); err != nil {
		t.Fatalf("RunWizard() error = %v", err)
	}
	if !installed {
		t.Error("empty answer defaults to yes; install should run")
	}
}

func TestRunWizard_InstallDeclined(t *testing.T) {
	checker := NewChecker(nil, "unused")
	var out bytes.Buffer
	checker.SetIO(strings.NewReader("n\n"), &out)

	installed := false
	missing := []Dependency{{
		Name:        "requirements.txt",
		Type:        "file",
		InstallFunc: func() error { installed = true; return nil },
	}}

	if err := checker.RunWizard(missing); err != nil {
		t.Fatalf("RunWizard() error = %v", err)
	}
	if installed {
		t.Error("declined install should not run")
	}
}

func TestRunWizard_InstallFails(t *testing.T) {
	checker := NewChecker(nil, "unused")
	var out bytes.Buffer
	checker.SetIO(strings.NewReader("y\n"), &out)

	missing := []Dependency{{
		Name:        "requirements.txt",
		Type:        "file",
		InstallFunc: func() error { return errors.New("disk full") },
	}}

	err := checker.RunWizard(missing)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("RunWizard() error = %v, want install failure", err)
	}
}
