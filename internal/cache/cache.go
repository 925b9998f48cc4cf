// Package cache persists rendered per-file facts between CLI runs.
// Entries are validated against a BLAKE3 hash of the file contents, so
// an edited file never serves stale facts. This cache belongs to the
// CLI; the analyzers themselves never cache across runs.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/Variations9/srcfacts/internal/output"
	"github.com/Variations9/srcfacts/pkg/config"
)

// Store is a file-backed facts cache.
type Store struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

type entry struct {
	Hash      string           `json:"hash"`
	Timestamp time.Time        `json:"timestamp"`
	Facts     output.FileFacts `json:"facts"`
}

// New creates a store from the cache configuration. A disabled config
// yields a store whose Get always misses and whose Put is a no-op.
func New(cfg config.CacheConfig) (*Store, error) {
	if !cfg.Enabled {
		return &Store{enabled: false}, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}

	return &Store{
		dir:     cfg.Dir,
		ttl:     time.Duration(cfg.TTL) * time.Hour,
		enabled: true,
	}, nil
}

// HashFile computes a BLAKE3 hash of a file's contents.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get retrieves the cached facts for a path, but only when the stored
// content hash matches and the entry has not expired.
func (s *Store) Get(path, hash string) (output.FileFacts, bool) {
	if !s.enabled {
		return output.FileFacts{}, false
	}

	keyFile := s.keyPath(path)
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return output.FileFacts{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return output.FileFacts{}, false
	}

	if e.Hash != hash {
		return output.FileFacts{}, false
	}

	if time.Since(e.Timestamp) > s.ttl {
		os.Remove(keyFile)
		return output.FileFacts{}, false
	}

	return e.Facts, true
}

// Put stores the facts for a path along with its content hash.
func (s *Store) Put(path, hash string, facts output.FileFacts) error {
	if !s.enabled {
		return nil
	}

	data, err := json.Marshal(entry{
		Hash:      hash,
		Timestamp: time.Now(),
		Facts:     facts,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(s.keyPath(path), data, 0600)
}

// Invalidate removes the entry for a path.
func (s *Store) Invalidate(path string) error {
	if !s.enabled {
		return nil
	}
	return os.Remove(s.keyPath(path))
}

// Clear removes all cache entries.
func (s *Store) Clear() error {
	if !s.enabled {
		return nil
	}
	return os.RemoveAll(s.dir)
}

// keyPath hashes the path into a filename so arbitrary paths never
// escape the cache directory.
func (s *Store) keyPath(path string) string {
	hash := blake3.Sum256([]byte(path))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats describes the on-disk cache.
type Stats struct {
	Entries   int   `json:"entries"`
	TotalSize int64 `json:"total_size"`
}

// GetStats walks the cache directory and reports entry counts.
func (s *Store) GetStats() (*Stats, error) {
	if !s.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
