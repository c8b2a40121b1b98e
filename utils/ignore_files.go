package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ignoreFileName is the per-site ignore file, one pattern per line.
const ignoreFileName = ".sitewright-ignore"

// defaultIgnoredDirs are directory names never worth scanning for site
// sources.
var defaultIgnoredDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	".idea":        true,
	".vscode":      true,
	".cache":       true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"bin":          true,
	"obj":          true,
}

// IsIgnoredDir reports whether a directory name is skipped during discovery.
func IsIgnoredDir(name string) bool {
	return defaultIgnoredDirs[strings.ToLower(name)]
}

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// Global cache for ignore patterns
var (
	ignoreCache      = make(map[string]*ignoreCacheEntry)
	ignoreCacheMutex sync.RWMutex
)

// GetIgnorePatterns reads and returns the patterns from the site's ignore
// file. If the file does not exist, it returns an empty pattern list.
// Parsed patterns are cached and invalidated by file modification time.
func GetIgnorePatterns(rootDir string) ([]string, error) {
	ignorePath := filepath.Join(rootDir, ignoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", ignoreFileName, err)
	}

	// Check cache first
	ignoreCacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			ignoreCacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	ignoreCacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ignoreFileName, err)
	}

	// Update cache
	ignoreCacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: patterns,
		modTime:  fileInfo.ModTime(),
	}
	ignoreCacheMutex.Unlock()

	return patterns, nil
}

// readIgnoreFile reads the ignore file and returns the list of patterns,
// skipping blank lines and comments.
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// MatchesIgnorePattern checks if a slash-separated relative path matches any
// of the site's ignore patterns. A glob matches against both the full path
// and the base name; a pattern ending in "/" ignores the whole directory.
func MatchesIgnorePattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if match, _ := filepath.Match(pattern, path); match {
			return true
		}
		if match, _ := filepath.Match(pattern, filepath.Base(path)); match {
			return true
		}
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}
	return false
}

// ClearIgnoreCache clears all cached ignore patterns
func ClearIgnoreCache() {
	ignoreCacheMutex.Lock()
	defer ignoreCacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
