// Package manifest parses requirements-style dependency manifests: one
// requirement per line, comments, editable installs, and nested -r includes.
package manifest

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	verrors "github.com/odvcencio/venvup/pkg/errors"
)

// Requirement is a single parsed manifest entry.
type Requirement struct {
	Name      string   // canonical package name, empty for editable/URL entries
	Extras    []string // optional extras, e.g. requests[socks]
	Specifier string   // version constraint, e.g. ==2.31.0 or >=1.0,<2.0
	Marker    string   // environment marker after ';', kept verbatim
	Editable  bool     // -e / --editable entries
	Raw       string   // original line, trimmed
	Source    string   // file the entry came from
	Line      int      // 1-based line number in Source
}

// Manifest is the flattened result of parsing a manifest and its includes.
type Manifest struct {
	Path         string
	Requirements []Requirement
	Includes     []string // resolved -r include paths, in order seen
	Options      []string // global options (--index-url etc.), kept verbatim
}

// requirementPattern matches "name[extras] specifier" with optional spacing.
var requirementPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[[^\]]*\])?\s*(.*)$`)

// ParseFile reads the manifest at path, following -r includes relative to
// the including file. Include cycles are detected and rejected.
func ParseFile(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, verrors.Wrap(err, verrors.ErrCodeManifestParse, "resolving manifest path")
	}

	m := &Manifest{Path: abs}
	if err := parseInto(m, abs, map[string]bool{}); err != nil {
		return nil, err
	}
	return m, nil
}

func parseInto(m *Manifest, path string, visited map[string]bool) error {
	if visited[path] {
		return verrors.New(verrors.ErrCodeManifestParse, "manifest include cycle").
			WithContext("path", path)
	}
	visited[path] = true

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return verrors.Wrap(err, verrors.ErrCodeManifestMissing, "manifest not found").
				WithContext("path", path).
				WithUserMessage("Dependency manifest not found").
				WithRemediation("Create " + filepath.Base(path) + " or point manifest.path at the right file")
		}
		return verrors.Wrap(err, verrors.ErrCodeManifestParse, "opening manifest").
			WithContext("path", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-r ") || strings.HasPrefix(line, "--requirement "):
			target := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "--requirement"), "-r"))
			included := target
			if !filepath.IsAbs(included) {
				included = filepath.Join(filepath.Dir(path), included)
			}
			m.Includes = append(m.Includes, included)
			if err := parseInto(m, included, visited); err != nil {
				return err
			}

		case strings.HasPrefix(line, "-e ") || strings.HasPrefix(line, "--editable "):
			target := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "--editable"), "-e"))
			m.Requirements = append(m.Requirements, Requirement{
				Editable: true,
				Raw:      target,
				Source:   path,
				Line:     lineNo,
			})

		case strings.HasPrefix(line, "-"):
			// Global pip options (--index-url, --no-binary, -c constraints
			// and the like) pass through to the installer untouched.
			m.Options = append(m.Options, line)

		default:
			req := parseRequirementLine(line)
			req.Source = path
			req.Line = lineNo
			m.Requirements = append(m.Requirements, req)
		}
	}
	if err := scanner.Err(); err != nil {
		return verrors.Wrap(err, verrors.ErrCodeManifestParse, "reading manifest").
			WithContext("path", path)
	}
	return nil
}

func parseRequirementLine(line string) Requirement {
	req := Requirement{Raw: line}

	spec := line
	if idx := strings.Index(line, ";"); idx >= 0 {
		req.Marker = strings.TrimSpace(line[idx+1:])
		spec = strings.TrimSpace(line[:idx])
	}

	// URL and path requirements have no parseable name; keep them raw.
	if strings.Contains(spec, "://") || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
		return req
	}

	matches := requirementPattern.FindStringSubmatch(spec)
	if matches == nil {
		return req
	}

	req.Name = matches[1]
	if matches[2] != "" {
		inner := strings.Trim(matches[2], "[]")
		for _, extra := range strings.Split(inner, ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
	}
	req.Specifier = strings.TrimSpace(matches[3])
	return req
}

// stripComment removes a trailing comment and surrounding whitespace.
// A '#' only starts a comment at line start or after whitespace, so URL
// fragments like pkg.tar.gz#sha256=... survive.
func stripComment(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	for i := 1; i < len(trimmed); i++ {
		if trimmed[i] == '#' && (trimmed[i-1] == ' ' || trimmed[i-1] == '\t') {
			return strings.TrimSpace(trimmed[:i])
		}
	}
	return trimmed
}

// Names returns the named requirements in manifest order, excluding
// editable and URL entries.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Requirements))
	for _, req := range m.Requirements {
		if req.Name != "" {
			names = append(names, req.Name)
		}
	}
	return names
}

// Pinned reports whether every named requirement carries an exact pin.
func (m *Manifest) Pinned() bool {
	for _, req := range m.Requirements {
		if req.Name == "" {
			continue
		}
		if !strings.HasPrefix(req.Specifier, "==") {
			return false
		}
	}
	return true
}
