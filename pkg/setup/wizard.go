package setup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Dependency represents a setup prerequisite
type Dependency struct {
	Name        string
	Type        string
	CheckFunc   func() bool
	InstallFunc func() error
	Prompt      string
	DocsLink    string
}

// Checker validates that required dependencies are present
type Checker struct {
	required []Dependency

	in  io.Reader
	out io.Writer
}

// NewChecker constructs a dependency checker for the given project:
// interpreterCandidates are the python binaries probed on PATH, and
// manifestPath is the dependency manifest the install step will read.
func NewChecker(interpreterCandidates []string, manifestPath string) *Checker {
	return &Checker{
		required: []Dependency{
			pythonDependency(interpreterCandidates),
			manifestDependency(manifestPath),
		},
		in:  os.Stdin,
		out: os.Stdout,
	}
}

// SetIO overrides the wizard's streams, for tests.
func (c *Checker) SetIO(in io.Reader, out io.Writer) {
	c.in = in
	c.out = out
}

// CheckAll returns the dependencies that are currently missing
func (c *Checker) CheckAll() ([]Dependency, error) {
	missing := []Dependency{}
	for _, dep := range c.required {
		if dep.CheckFunc == nil {
			continue
		}
		if !dep.CheckFunc() {
			missing = append(missing, dep)
		}
	}
	return missing, nil
}

// RunWizard guides the user through resolving missing prerequisites
func (c *Checker) RunWizard(missing []Dependency) error {
	if len(missing) == 0 {
		return nil
	}

	fmt.Fprintln(c.out, "🔧 venvup Setup")
	fmt.Fprintln(c.out, "Some required prerequisites are missing.")

	reader := bufio.NewReader(c.in)

	for i, dep := range missing {
		fmt.Fprintf(c.out, "[%d/%d] %s (%s)\n", i+1, len(missing), dep.Name, dep.Type)
		if dep.Prompt != "" {
			fmt.Fprintln(c.out, dep.Prompt)
		}
		if dep.DocsLink != "" {
			fmt.Fprintf(c.out, "Docs: %s\n", dep.DocsLink)
		}

		if dep.InstallFunc == nil {
			fmt.Fprintln(c.out, "Please resolve this manually and re-run venvup.")
			continue
		}

		fmt.Fprint(c.out, "\nSet this up now? [Y/n]: ")
		choice, _ := reader.ReadString('\n')
		if strings.TrimSpace(strings.ToLower(choice)) == "n" {
			fmt.Fprintln(c.out, "Skipping. venvup cannot continue until this is resolved.")
			continue
		}

		if err := dep.InstallFunc(); err != nil {
			return fmt.Errorf("%s setup failed: %w", dep.Name, err)
		}

		fmt.Fprintln(c.out, "✓ Done!")
	}

	return nil
}

func pythonDependency(candidates []string) Dependency {
	return Dependency{
		Name: "Python interpreter",
		Type: "binary",
		CheckFunc: func() bool {
			for _, candidate := range candidates {
				if strings.TrimSpace(candidate) == "" {
					continue
				}
				if _, err := exec.LookPath(candidate); err == nil {
					return true
				}
			}
			return false
		},
		Prompt:   "Install Python 3 so venvup can create the virtual environment.",
		DocsLink: "https://www.python.org/downloads/",
	}
}

func manifestDependency(manifestPath string) Dependency {
	return Dependency{
		Name: filepath.Base(manifestPath),
		Type: "file",
		CheckFunc: func() bool {
			info, err := os.Stat(manifestPath)
			return err == nil && !info.IsDir()
		},
		Prompt:   "Create the dependency manifest so the install step has something to install.",
		DocsLink: "https://pip.pypa.io/en/stable/reference/requirements-file-format/",
	}
}
