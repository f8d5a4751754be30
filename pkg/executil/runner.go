// Package executil runs external commands with timeouts, captured output,
// and process-group cleanup. It is the single choke point for every
// subprocess venvup spawns.
package executil

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes external commands.
type Runner struct {
	// Dir is the working directory for every command.
	Dir string
	// Timeout bounds each command; zero means no limit.
	Timeout time.Duration
	// MaxOutputSize truncates captured streams (0 = unlimited).
	MaxOutputSize int64
	// Env replaces the inherited environment when non-nil.
	Env []string

	// runFunc allows stubbing command execution in tests.
	runFunc func(cmd *exec.Cmd) error
}

// New creates a Runner with sensible capture limits.
func New(dir string, timeout time.Duration) *Runner {
	return &Runner{
		Dir:           dir,
		Timeout:       timeout,
		MaxOutputSize: 10 * 1024 * 1024, // 10MB
		runFunc: func(cmd *exec.Cmd) error {
			return cmd.Run()
		},
	}
}

// SetRunFunc overrides command execution, for tests.
func (r *Runner) SetRunFunc(fn func(cmd *exec.Cmd) error) {
	r.runFunc = fn
}

// Result contains the outcome of a command execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Killed   bool
	Error    error
}

// Failed reports whether the command did not complete successfully.
func (res *Result) Failed() bool {
	return res.Error != nil || res.ExitCode != 0
}

// Run executes name with args and captures its output.
func (r *Runner) Run(ctx context.Context, name string, args ...string) *Result {
	start := time.Now()
	result := &Result{}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	setSysProcAttr(cmd)

	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runFunc := r.runFunc
	if runFunc == nil {
		runFunc = func(cmd *exec.Cmd) error { return cmd.Run() }
	}

	err := runFunc(cmd)
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if ctx.Err() == context.DeadlineExceeded {
		result.Killed = true
		result.Error = fmt.Errorf("command timed out after %v", r.Timeout)
		result.ExitCode = 124 // Standard timeout exit code
		return result
	}

	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitError.ExitCode()
		} else {
			result.Error = err
			result.ExitCode = 1
		}
	}

	if r.MaxOutputSize > 0 {
		if int64(len(result.Stdout)) > r.MaxOutputSize {
			result.Stdout = result.Stdout[:r.MaxOutputSize] + "\n... (output truncated)"
		}
		if int64(len(result.Stderr)) > r.MaxOutputSize {
			result.Stderr = result.Stderr[:r.MaxOutputSize] + "\n... (output truncated)"
		}
	}

	return result
}

// LookPath reports the resolved path of the first candidate found on PATH.
func LookPath(candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			return path, true
		}
	}
	return "", false
}
