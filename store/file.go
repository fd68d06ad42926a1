package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the identity cache as a JSON file so a kiosk or
// terminal client survives restarts the way a browser tab survives reloads.
// Every write is flushed through to disk, matching localStorage semantics.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// NewFileStore opens (or creates) the store file at path
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if err := json.Unmarshal(data, &fs.values); err != nil {
		// A corrupt cache file is discarded rather than crashing the flow;
		// the server remains authoritative for everything cached here.
		log.Printf("store: discarding corrupt cache file %s: %v", path, err)
		fs.values = make(map[string]string)
	}
	return fs, nil
}

// Get returns the value for key and whether it was present
func (f *FileStore) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key and flushes to disk
func (f *FileStore) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	f.flush()
}

// Remove deletes key and flushes to disk
func (f *FileStore) Remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	f.flush()
}

// Keys returns a snapshot of all present keys
func (f *FileStore) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	return keys
}

// flush writes the current map to disk; callers must hold the lock.
// Write errors are logged and tolerated, the in-memory copy stays valid.
func (f *FileStore) flush() {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		log.Printf("store: failed to encode cache: %v", err)
		return
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("store: failed to write cache file: %v", err)
		return
	}
	if err := os.Rename(tmp, f.path); err != nil {
		log.Printf("store: failed to replace cache file: %v", err)
	}
}

// DefaultStorePath returns the conventional cache file location under the
// user config directory
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "terra-ordering", "identity.json")
}
