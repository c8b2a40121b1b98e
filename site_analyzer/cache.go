package site_analyzer

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// CacheEntry is one cached item together with the source file metadata used
// for invalidation.
type CacheEntry struct {
	Data      interface{}
	Timestamp time.Time
	FileSize  int64
	ModTime   time.Time
}

// FileCache persists gob-encoded entries under a cache directory, keyed by a
// hash of the source path plus the entry kind.
type FileCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

// CacheStats tracks hit/miss counters for one manager instance.
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// CacheManager provides the content and outline caches used by the analyzer.
type CacheManager struct {
	fileCache *FileCache
	stats     *CacheStats
}

const (
	cacheKindContent = "content"
	cacheKindOutline = "outline"
)

// NewCacheManager creates a cache manager rooted at cacheDir. An empty
// cacheDir defaults to ".cache" under the current working directory.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	gob.Register([]byte{})
	gob.Register([]string{})

	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".cache")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &CacheManager{
		fileCache: &FileCache{cacheDir: cacheDir},
		stats:     &CacheStats{LastResetTime: time.Now()},
	}, nil
}

// generateCacheKey creates the cache file name for a source path and kind.
func (fc *FileCache) generateCacheKey(filePath string, kind string) string {
	hash := xxh3.HashString(kind + "|" + filePath)
	return fmt.Sprintf("%016x.cache", hash)
}

func (fc *FileCache) getCachePath(cacheKey string) string {
	return filepath.Join(fc.cacheDir, cacheKey)
}

// isFileChanged reports whether the source file was modified since the entry
// was written. Any stat failure counts as changed.
func (fc *FileCache) isFileChanged(filePath string, entry *CacheEntry) bool {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return true
	}
	return !fileInfo.ModTime().Equal(entry.ModTime) || fileInfo.Size() != entry.FileSize
}

// Get retrieves a valid entry for filePath and kind. Entries whose source
// file has changed are removed and reported as misses.
func (fc *FileCache) Get(filePath string, kind string) (interface{}, bool) {
	fc.mutex.RLock()
	defer fc.mutex.RUnlock()

	cachePath := fc.getCachePath(fc.generateCacheKey(filePath, kind))

	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}

	var entry CacheEntry
	decoder := gob.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&entry); err != nil {
		return nil, false
	}

	if fc.isFileChanged(filePath, &entry) {
		os.Remove(cachePath)
		return nil, false
	}

	return entry.Data, true
}

// Set stores data for filePath and kind with the source file's metadata.
func (fc *FileCache) Set(filePath string, kind string, data interface{}) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	entry := CacheEntry{
		Data:      data,
		Timestamp: time.Now(),
		FileSize:  fileInfo.Size(),
		ModTime:   fileInfo.ModTime(),
	}

	var buffer bytes.Buffer
	encoder := gob.NewEncoder(&buffer)
	if err := encoder.Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	cachePath := fc.getCachePath(fc.generateCacheKey(filePath, kind))
	if err := os.WriteFile(cachePath, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Clear removes the whole cache directory and recreates it empty.
func (fc *FileCache) Clear() error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	if err := os.RemoveAll(fc.cacheDir); err != nil {
		return err
	}
	return os.MkdirAll(fc.cacheDir, 0755)
}

// GetFileContentCache retrieves cached file content.
func (cm *CacheManager) GetFileContentCache(filePath string) ([]byte, bool) {
	data, found := cm.fileCache.Get(filePath, cacheKindContent)
	if !found {
		cm.recordCacheMiss()
		return nil, false
	}

	if content, ok := data.([]byte); ok {
		cm.recordCacheHit()
		return content, true
	}

	cm.recordCacheMiss()
	return nil, false
}

// SetFileContentCache stores file content in the cache.
func (cm *CacheManager) SetFileContentCache(filePath string, content []byte) error {
	return cm.fileCache.Set(filePath, cacheKindContent, content)
}

// GetOutlineCache retrieves cached structural outline lines for a file.
func (cm *CacheManager) GetOutlineCache(filePath string) ([]string, bool) {
	data, found := cm.fileCache.Get(filePath, cacheKindOutline)
	if !found {
		cm.recordCacheMiss()
		return nil, false
	}

	if outline, ok := data.([]string); ok {
		cm.recordCacheHit()
		return outline, true
	}

	cm.recordCacheMiss()
	return nil, false
}

// SetOutlineCache stores structural outline lines for a file.
func (cm *CacheManager) SetOutlineCache(filePath string, outline []string) error {
	return cm.fileCache.Set(filePath, cacheKindOutline, outline)
}

// GetCacheStats returns cache statistics for the reset-cache command.
func (cm *CacheManager) GetCacheStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	files, err := os.ReadDir(cm.fileCache.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var totalSize int64
	count := 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if info, err := file.Info(); err == nil {
			totalSize += info.Size()
		}
		count++
	}

	stats["cache_enabled"] = true
	stats["cache_dir"] = cm.fileCache.cacheDir
	stats["cache_files"] = count
	stats["total_size"] = totalSize

	cm.stats.mutex.RLock()
	stats["total_requests"] = cm.stats.TotalRequests
	stats["cache_hits"] = cm.stats.CacheHits
	stats["cache_misses"] = cm.stats.CacheMisses
	if cm.stats.TotalRequests > 0 {
		stats["hit_rate"] = float64(cm.stats.CacheHits) / float64(cm.stats.TotalRequests) * 100
	} else {
		stats["hit_rate"] = float64(0)
	}
	cm.stats.mutex.RUnlock()

	return stats, nil
}

// ClearCache removes every cached entry.
func (cm *CacheManager) ClearCache() error {
	if err := cm.fileCache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	cm.stats.mutex.Lock()
	cm.stats.TotalRequests = 0
	cm.stats.CacheHits = 0
	cm.stats.CacheMisses = 0
	cm.stats.LastResetTime = time.Now()
	cm.stats.mutex.Unlock()

	return nil
}

func (cm *CacheManager) recordCacheHit() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests++
	cm.stats.CacheHits++
}

func (cm *CacheManager) recordCacheMiss() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests++
	cm.stats.CacheMisses++
}
