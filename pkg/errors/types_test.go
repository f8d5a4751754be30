package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInterpreterNotFound, "no python interpreter on PATH")

	if err == nil {
		t.Fatal("New should return non-nil error")
	}

	if err.Code != ErrCodeInterpreterNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInterpreterNotFound)
	}

	if err.Retryable {
		t.Error("new errors should not be retryable by default")
	}

	if len(err.Stack) == 0 {
		t.Error("expected captured stack frames")
	}
}

func TestWrap(t *testing.T) {
	underlying := fmt.Errorf("exit status 1")
	err := Wrap(underlying, ErrCodePipInstall, "pip install failed")

	if err.Underlying != underlying {
		t.Errorf("Underlying = %v, want %v", err.Underlying, underlying)
	}

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should see the underlying error")
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, ErrCodePipInstall, "x"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestError_String(t *testing.T) {
	err := New(ErrCodeManifestMissing, "requirements.txt not found").
		WithContext("path", "/tmp/project/requirements.txt")

	msg := err.Error()
	if !strings.Contains(msg, "MANIFEST_MISSING") {
		t.Errorf("Error() = %q, want code in message", msg)
	}
	if !strings.Contains(msg, "path=/tmp/project/requirements.txt") {
		t.Errorf("Error() = %q, want context in message", msg)
	}
}

func TestError_Friendly(t *testing.T) {
	err := New(ErrCodeEnvCreate, "python -m venv exited 1").
		WithUserMessage("Could not create the virtual environment")

	if got := err.Friendly(); got != "Could not create the virtual environment" {
		t.Errorf("Friendly() = %q", got)
	}

	plain := New(ErrCodeEnvCreate, "python -m venv exited 1")
	if got := plain.Friendly(); got != "python -m venv exited 1" {
		t.Errorf("Friendly() fallback = %q", got)
	}
}

func TestError_Remediation(t *testing.T) {
	err := New(ErrCodeInterpreterNotFound, "no interpreter").
		WithRemediation("Install Python 3", "Check your PATH")

	if len(err.Remediation) != 2 {
		t.Fatalf("Remediation length = %d, want 2", len(err.Remediation))
	}
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeManifestMissing, "missing")
	outer := fmt.Errorf("bootstrap: %w", inner)

	if !IsCode(outer, ErrCodeManifestMissing) {
		t.Error("IsCode should find code through wrapping")
	}
	if IsCode(outer, ErrCodePipUpgrade) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(nil, ErrCodeManifestMissing) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestWithRetryable(t *testing.T) {
	err := New(ErrCodePipInstall, "network flake").WithRetryable(true)
	if !err.Retryable {
		t.Error("expected retryable")
	}
}
