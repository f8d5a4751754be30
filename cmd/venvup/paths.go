package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/venvup/pkg/config"
)

const (
	envVenvupDataDir = "VENVUP_DATA_DIR"
	envVenvupLogDir  = "VENVUP_LOG_DIR"
)

func resolveDataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envVenvupDataDir)); dir != "" {
		return expandHomePath(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".venvup"), nil
}

// resolveLogDir picks the run log directory: env var first, then the
// configured logging.dir, then <data-dir>/logs.
func resolveLogDir(cfg *config.Config) (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envVenvupLogDir)); dir != "" {
		return expandHomePath(dir)
	}

	if cfg != nil {
		if dir := strings.TrimSpace(cfg.Logging.Dir); dir != "" {
			return expandHomePath(dir)
		}
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "logs"), nil
}

func expandHomePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}

	return path, nil
}
