package main

import (
	"bufio"
	"flag"
	"os"
	"strings"

	"github.com/odvcencio/venvup/pkg/envdetect"
)

// runCleanCommand removes the virtual environment and its lock file.
func runCleanCommand(args []string) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "remove without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, root, err := loadConfigAndRoot()
	if err != nil {
		return err
	}

	writer := newWriter()
	envPath := cfg.EnvPath(root)

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		writer.Println("No virtual environment at %s", cfg.Env.Dir)
		return nil
	}

	if !*yes && isInteractiveTerminal() {
		writer.Print("Remove %s? [y/N]: ", envPath)
		reader := bufio.NewReader(os.Stdin)
		choice, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(choice)) != "y" {
			writer.Dim("Aborted")
			return nil
		}
	}

	if err := os.RemoveAll(envPath); err != nil {
		return err
	}
	// A stale lock from an interrupted run should not survive the env,
	// and neither should the cached detection profile.
	os.Remove(envPath + ".lock")
	envdetect.NewDetector(root, cfg.Python.Candidates).ClearCache()

	writer.Success("Removed %s", cfg.Env.Dir)
	return nil
}
