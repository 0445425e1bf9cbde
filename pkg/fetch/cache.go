package fetch

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// CacheMetadata tracks cached pages.
type CacheMetadata struct {
	Version   int          `yaml:"cache_version"`
	TotalSize int64        `yaml:"total_size_bytes"`
	Entries   []CacheEntry `yaml:"entries"`
}

// CacheEntry represents one cached page.
type CacheEntry struct {
	ID       string    `yaml:"id"` // hash of the URL
	URL      string    `yaml:"url"`
	Size     int64     `yaml:"size_bytes"`
	CachedAt time.Time `yaml:"cached_at"`
	FilePath string    `yaml:"file_path"`
}

// PageCache stores fetched pages on disk under a size cap. Entries expire
// after maxAge; the oldest pages are evicted first when the cap is hit.
type PageCache struct {
	rootDir      string
	metadataFile string
	maxSize      int64
	maxAge       time.Duration
}

// NewPageCache creates a page cache rooted at rootDir.
func NewPageCache(rootDir string, maxSize int64) *PageCache {
	return &PageCache{
		rootDir:      rootDir,
		metadataFile: filepath.Join(rootDir, "metadata.yaml"),
		maxSize:      maxSize,
		maxAge:       24 * time.Hour,
	}
}

// Get returns a cached page for url, if present and fresh.
func (pc *PageCache) Get(url string) (string, bool) {
	metadata, err := pc.loadMetadata()
	if err != nil {
		return "", false
	}

	id := cacheID(url)
	for _, entry := range metadata.Entries {
		if entry.ID != id {
			continue
		}
		if time.Since(entry.CachedAt) > pc.maxAge {
			return "", false
		}
		data, err := os.ReadFile(entry.FilePath)
		if err != nil {
			return "", false
		}
		return string(data), true
	}
	return "", false
}

// Put stores a page for url, evicting old entries as needed.
func (pc *PageCache) Put(url, page string) error {
	if err := os.MkdirAll(pc.rootDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	id := cacheID(url)
	path := filepath.Join(pc.rootDir, id+".html")
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		return fmt.Errorf("failed to write cached page: %w", err)
	}

	metadata, err := pc.loadMetadata()
	if err != nil {
		return err
	}

	// Replace any stale entry for the same URL
	for i, entry := range metadata.Entries {
		if entry.ID == id {
			metadata.TotalSize -= entry.Size
			metadata.Entries = append(metadata.Entries[:i], metadata.Entries[i+1:]...)
			break
		}
	}

	metadata.Entries = append(metadata.Entries, CacheEntry{
		ID:       id,
		URL:      url,
		Size:     int64(len(page)),
		CachedAt: time.Now(),
		FilePath: path,
	})
	metadata.TotalSize += int64(len(page))

	if metadata.TotalSize > pc.maxSize {
		pc.cleanup(metadata)
	}

	return pc.saveMetadata(metadata)
}

// Clear removes every cached page.
func (pc *PageCache) Clear() error {
	metadata, err := pc.loadMetadata()
	if err != nil {
		return err
	}
	for _, entry := range metadata.Entries {
		os.Remove(entry.FilePath)
	}
	metadata.Entries = []CacheEntry{}
	metadata.TotalSize = 0
	return pc.saveMetadata(metadata)
}

// Info returns cache statistics.
func (pc *PageCache) Info() (CacheInfo, error) {
	metadata, err := pc.loadMetadata()
	if err != nil {
		return CacheInfo{}, err
	}

	info := CacheInfo{
		TotalSize:  metadata.TotalSize,
		MaxSize:    pc.maxSize,
		EntryCount: len(metadata.Entries),
	}
	for _, entry := range metadata.Entries {
		if info.OldestEntry.IsZero() || entry.CachedAt.Before(info.OldestEntry) {
			info.OldestEntry = entry.CachedAt
		}
		if info.NewestEntry.IsZero() || entry.CachedAt.After(info.NewestEntry) {
			info.NewestEntry = entry.CachedAt
		}
	}
	return info, nil
}

// CacheInfo represents cache statistics.
type CacheInfo struct {
	TotalSize   int64     `json:"total_size_bytes"`
	MaxSize     int64     `json:"max_size_bytes"`
	EntryCount  int       `json:"entry_count"`
	OldestEntry time.Time `json:"oldest_entry"`
	NewestEntry time.Time `json:"newest_entry"`
}

func (pc *PageCache) loadMetadata() (*CacheMetadata, error) {
	data, err := os.ReadFile(pc.metadataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return &CacheMetadata{Version: 1, Entries: []CacheEntry{}}, nil
		}
		return nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var metadata CacheMetadata
	if err := yaml.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse cache metadata: %w", err)
	}
	return &metadata, nil
}

func (pc *PageCache) saveMetadata(metadata *CacheMetadata) error {
	data, err := yaml.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}
	if err := os.WriteFile(pc.metadataFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}
	return nil
}

// cleanup drops expired pages first, then the oldest pages until the cache
// fits the size cap again.
func (pc *PageCache) cleanup(metadata *CacheMetadata) {
	now := time.Now()
	var valid []CacheEntry
	var totalSize int64

	for _, entry := range metadata.Entries {
		if now.Sub(entry.CachedAt) < pc.maxAge {
			valid = append(valid, entry)
			totalSize += entry.Size
		} else {
			os.Remove(entry.FilePath)
		}
	}

	if totalSize > pc.maxSize {
		sort.Slice(valid, func(i, j int) bool {
			return valid[i].CachedAt.Before(valid[j].CachedAt)
		})
		for totalSize > pc.maxSize && len(valid) > 0 {
			entry := valid[0]
			valid = valid[1:]
			totalSize -= entry.Size
			os.Remove(entry.FilePath)
		}
	}

	metadata.Entries = valid
	metadata.TotalSize = totalSize
}

func cacheID(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}
