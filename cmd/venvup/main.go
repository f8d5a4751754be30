package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/term"

	"github.com/odvcencio/venvup/pkg/config"
	"github.com/odvcencio/venvup/pkg/terminal"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var quietMode bool
var noColor bool
var configPath string

type startupOptions struct {
	args       []string
	quiet      bool
	noColor    bool
	configPath string
	chdir      string
}

func main() {
	opts, err := parseStartupOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if opts.chdir != "" {
		if err := os.Chdir(opts.chdir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	quietMode = opts.quiet
	noColor = opts.noColor
	configPath = opts.configPath

	if handled, exitCode := dispatchSubcommand(opts.args); handled {
		os.Exit(exitCode)
	}

	// Bare invocation bootstraps the current project.
	os.Exit(runCommand(runUpCommand, opts.args))
}

func dispatchSubcommand(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}
	switch args[0] {
	case "--version", "-v", "version":
		printVersion()
		return true, 0
	case "--help", "-h", "help":
		printHelp()
		return true, 0
	case "up":
		return true, runCommand(runUpCommand, args[1:])
	case "check":
		return true, runCommand(runCheckCommand, args[1:])
	case "watch":
		return true, runCommand(runWatchCommand, args[1:])
	case "clean":
		return true, runCommand(runCleanCommand, args[1:])
	case "config":
		return true, runCommand(runConfigCommand, args[1:])
	case "doctor":
		// Alias for check - quick project health check
		return true, runCommand(runCheckCommand, args[1:])
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(os.Stderr, "Error: unknown flag: %s\n", args[0])
		} else {
			fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", args[0])
		}
		fmt.Fprintln(os.Stderr, "Run 'venvup --help' for usage.")
		return true, 1
	}
}

func runCommand(handler func([]string) error, args []string) int {
	if err := handler(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeForError(err)
	}
	return 0
}

func parseStartupOptions(raw []string) (*startupOptions, error) {
	opts := &startupOptions{}
	if val, ok := parseBoolEnv("VENVUP_QUIET"); ok {
		opts.quiet = val
	}
	if val, ok := parseBoolEnv("NO_COLOR"); ok {
		opts.noColor = val
	}

	filtered := make([]string, 0, len(raw))
	var nextConfig bool
	var nextChdir bool

	for _, arg := range raw {
		if nextConfig {
			opts.configPath = arg
			nextConfig = false
			continue
		}
		if nextChdir {
			opts.chdir = arg
			nextChdir = false
			continue
		}

		switch arg {
		case "--quiet", "-q":
			opts.quiet = true
		case "--no-color":
			opts.noColor = true
		case "--config", "-c":
			nextConfig = true
		case "-C":
			nextChdir = true
		default:
			if strings.HasPrefix(arg, "--config=") {
				opts.configPath = strings.TrimPrefix(arg, "--config=")
			} else {
				filtered = append(filtered, arg)
			}
		}
	}

	if nextConfig {
		return nil, fmt.Errorf("--config requires a path argument")
	}
	if nextChdir {
		return nil, fmt.Errorf("-C requires a directory argument")
	}

	opts.args = filtered
	return opts, nil
}

func parseBoolEnv(key string) (bool, bool) {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if val == "" {
		return false, false
	}
	switch val {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// newWriter builds the terminal writer honoring quiet and color settings.
func newWriter() *terminal.Writer {
	w := terminal.New()
	w.SetQuiet(quietMode)
	if noColor || !isInteractiveTerminal() {
		w.SetPlain(true)
	}
	return w
}

func newSpinner(message string) *terminal.Spinner {
	s := terminal.NewSpinner(message)
	if quietMode || noColor || !isInteractiveTerminal() {
		s.Disable()
	}
	return s
}

// loadConfigAndRoot resolves the project root and effective configuration.
// The config is loaded against the working directory first since the
// project-level file may itself repoint the root.
func loadConfigAndRoot() (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := config.Load(configPath, cwd)
	if err != nil {
		return nil, "", err
	}

	root := config.ResolveProjectRoot(cfg)
	if root != cwd {
		if cfg, err = config.Load(configPath, root); err != nil {
			return nil, "", err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

func printHelp() {
	fmt.Println("venvup - Python virtual environment bootstrapper")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  venvup [FLAGS] [COMMAND]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  up [--clear] [--skip-upgrade]    Create the environment and install the manifest (default)")
	fmt.Println("  check                            Report interpreter, manifest, and environment status")
	fmt.Println("  watch                            Bootstrap, then reinstall whenever the manifest changes")
	fmt.Println("  clean [--yes]                    Remove the virtual environment")
	fmt.Println("  config [show|path|check]         Manage configuration")
	fmt.Println("  doctor                           Quick project health check (alias for check)")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -c, --config <path>              Use custom config file")
	fmt.Println("  -C <dir>                         Run as if started in <dir>")
	fmt.Println("  -q, --quiet                      Suppress non-essential output")
	fmt.Println("  --no-color                       Disable colored output")
	fmt.Println("  -v, --version                    Show version information")
	fmt.Println("  -h, --help                       Show this help")
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  VENVUP_QUIET                     Same as --quiet")
	fmt.Println("  NO_COLOR                         Same as --no-color")
	fmt.Println("  VENVUP_DATA_DIR                  Override the data directory (default ~/.venvup)")
	fmt.Println("  VENVUP_LOG_DIR                   Override the run log directory")
}

func printVersion() {
	fmt.Printf("venvup %s\n", version)
	if commit != "unknown" {
		fmt.Printf("  Commit:     %s\n", commit)
	}
	if buildDate != "unknown" {
		fmt.Printf("  Built:      %s\n", buildDate)
	}
	fmt.Printf("  Go version: %s\n", runtime.Version())
}
