package envdetect

import "time"

// Profile represents detected Python project characteristics
type Profile struct {
	Python     PythonInfo
	Lockfiles  []string // signature files present at the root
	DetectedAt time.Time
	CacheKey   string // Hash of lockfiles
}

// PythonInfo describes the interpreter the project expects
type PythonInfo struct {
	Interpreter string // resolved binary path, empty when none found
	Version     string // "3.11", "latest" when unpinned
	Source      string // where Version came from: ".python-version", "pyproject.toml", "default"
}

// Signature defines the files that mark a Python project
type Signature struct {
	Lockfiles    []string
	VersionFile  string
	VersionRegex string
}
