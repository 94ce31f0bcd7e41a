package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File persists credentials as a JSON document on disk.
// Writes go through a temp file and rename so readers never observe a
// partially written token.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file-backed store at the given path.
// Parent directories are created on first save.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load() (Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, ErrNotFound
		}
		return Credentials{}, fmt.Errorf("credentials: read %s: %w", f.path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("credentials: decode %s: %w", f.path, err)
	}
	if creds.AccessToken == "" {
		return Credentials{}, ErrNotFound
	}
	return creds, nil
}

func (f *File) Save(creds Credentials) error {
	if creds.AccessToken == "" {
		return ErrEmptyToken
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("credentials: create dir for %s: %w", f.path, err)
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("credentials: encode: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("credentials: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("credentials: rename %s: %w", tmp, err)
	}
	return nil
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("credentials: remove %s: %w", f.path, err)
	}
	return nil
}
