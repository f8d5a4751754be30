//go:build windows

package executil

import "os/exec"

// setSysProcAttr sets Windows-specific process attributes.
// Setpgid is not available on Windows, so this is a no-op.
func setSysProcAttr(cmd *exec.Cmd) {
}
