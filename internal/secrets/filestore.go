package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FilePerms restricts secret files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the secrets directory.
const DirPerms = 0o700

// FileStore is a Store backed by a single JSON file, scoped by service
// name. Writes are atomic (write-to-temp + rename) so a crash cannot leave
// a truncated credential file behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore for the given service under dir.
// The file is created lazily on first Set.
func NewFileStore(dir, service string) *FileStore {
	return &FileStore{path: filepath.Join(dir, service+".json")}
}

// Get returns the value stored under key, or ErrNotFound.
func (s *FileStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", err
	}

	val, ok := entries[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return val, nil
}

// Set stores value under key.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	entries[key] = value

	return s.save(entries)
}

// Remove deletes the value under key. Removing an absent key is not an error.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	delete(entries, key)

	return s.save(entries)
}

// RemoveAll deletes every stored value.
func (s *FileStore) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("secrets: removing %s: %w", s.path, err)
	}

	return nil
}

// load reads the store file. An absent file is an empty store.
func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("secrets: reading %s: %w", s.path, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("secrets: decoding %s: %w", s.path, err)
	}

	if entries == nil {
		entries = map[string]string{}
	}

	return entries, nil
}

// save writes the store file atomically with 0600 permissions.
// Never logs secret values.
func (s *FileStore) save(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("secrets: encoding: %w", err)
	}

	dir := filepath.Dir(s.path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("secrets: creating directory %s: %w", dir, mkErr)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".secrets-*.tmp")
	if err != nil {
		return fmt.Errorf("secrets: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("secrets: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("secrets: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("secrets: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("secrets: closing: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("secrets: renaming: %w", err)
	}

	success = true

	return nil
}
