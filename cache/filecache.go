package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

// fileEntry is the on-disk representation of a cached value
type fileEntry struct {
	Key       string     `json:"key"`
	StoredAt  time.Time  `json:"stored_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Body      []byte     `json:"body"`
}

// FileStore implements Store using one JSON file per key.
type FileStore struct {
	dir string
	mu  sync.Mutex // serializes prefix deletes against writes
}

// DefaultFileDir returns the default cache directory under the user's XDG
// cache home.
func DefaultFileDir() string {
	return filepath.Join(xdg.CacheHome, "newsgpt")
}

// NewFileStore creates a file-based store rooted at dir.
// If dir is empty, DefaultFileDir is used.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultFileDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// Get implements Getter
func (fs *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, err := fs.read(fs.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// Distinct keys can map to the same file name
	if entry.Key != key {
		return nil, false, nil
	}

	if entry.ExpiresAt != nil && !time.Now().Before(*entry.ExpiresAt) {
		return nil, false, nil
	}

	return entry.Body, true, nil
}

// Set implements Setter
func (fs *FileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	entry := fileEntry{
		Key:      key,
		StoredAt: now,
		Body:     value,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		entry.ExpiresAt = &exp
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	// Write to temporary file first, then rename (atomic operation)
	path := fs.path(key)
	tmpPath := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Delete implements Deleter. Entries are matched by the key they recorded,
// so hashed file names do not hide them from a prefix delete.
func (fs *FileStore) Delete(_ context.Context, keyOrPrefix string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	files, err := os.ReadDir(fs.dir)
	if err != nil {
		return err
	}

	var errs []error
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		p := filepath.Join(fs.dir, f.Name())
		entry, err := fs.read(p)
		if err != nil {
			// unreadable entries can never be served, drop them
			if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				errs = append(errs, rmErr)
			}
			continue
		}
		if strings.HasPrefix(entry.Key, keyOrPrefix) {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Purge implements Purger by removing expired and unreadable entry files.
func (fs *FileStore) Purge(_ context.Context) (int64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	files, err := os.ReadDir(fs.dir)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	var n int64
	var errs []error
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		p := filepath.Join(fs.dir, f.Name())
		entry, err := fs.read(p)
		if err == nil && (entry.ExpiresAt == nil || now.Before(*entry.ExpiresAt)) {
			continue
		}
		if err := os.Remove(p); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

func (fs *FileStore) read(path string) (*fileEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", filepath.Base(path), err)
	}
	return &entry, nil
}

// path generates the full filesystem path for a cache key
func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, sanitizeKey(key)+".json")
}

// sanitizeKey ensures the key is safe for use as a filename
func sanitizeKey(key string) string {
	// For very long keys, use hash to avoid filesystem limits
	if len(key) > 200 {
		hash := md5.Sum([]byte(key))
		return fmt.Sprintf("hash_%x", hash)
	}

	unsafe := []string{"/", "\\", ":", "?", "&", "=", "#", "<", ">", "|", "*", "\"", "%", " "}
	result := key
	for _, char := range unsafe {
		result = strings.ReplaceAll(result, char, "_")
	}
	return result
}
