package envdetect

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const cachePrefix = "profile-"

// Cache persists detection profiles under the project's .venvup directory,
// keyed by the lockfile hash. Only one key is ever valid for a project, so
// writing a new entry evicts the rest.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir, creating it if needed.
func NewCache(dir string) *Cache {
	os.MkdirAll(dir, 0755)
	return &Cache{dir: dir}
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, cachePrefix+key+".json")
}

// Get retrieves a cached profile. Unreadable or corrupt entries are treated
// as misses.
func (c *Cache) Get(key string) (*Profile, bool) {
	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return nil, false
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

// Set stores a profile and evicts entries for other keys.
func (c *Cache) Set(key string, profile *Profile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.entryPath(key), data, 0644); err != nil {
		return err
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, cachePrefix) && name != cachePrefix+key+".json" {
			os.Remove(filepath.Join(c.dir, name))
		}
	}
	return nil
}

// Clear removes every cached profile.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), cachePrefix) {
			os.Remove(filepath.Join(c.dir, entry.Name()))
		}
	}
	return nil
}

// computeCacheKey hashes the lockfile names and contents so that both edits
// and newly added signature files invalidate the profile.
func computeCacheKey(rootPath string, lockfiles []string) string {
	h := sha256.New()
	for _, lf := range lockfiles {
		data, err := os.ReadFile(filepath.Join(rootPath, lf))
		if err != nil {
			continue
		}
		h.Write([]byte(lf))
		h.Write(data)
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
