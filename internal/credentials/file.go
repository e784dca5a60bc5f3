package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore persists the credential as a YAML document readable only by the owner.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

// NewFileStore returns a FileStore at path. The file is created on first Set.
func NewFileStore(path string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{path: path, log: log}
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

// Current reads the file; a missing or unreadable file means no credential.
func (f *FileStore) Current() (Credential, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.log.Warn("failed to read credentials", "path", f.path, "error", err)
		}
		return Credential{}, false
	}

	var c Credential
	if err := yaml.Unmarshal(data, &c); err != nil {
		f.log.Warn("malformed credentials file", "path", f.path, "error", err)
		return Credential{}, false
	}
	if c.Token == "" {
		return Credential{}, false
	}
	return c, true
}

func (f *FileStore) Set(c Credential) error {
	if c.Token == "" {
		return ErrEmptyToken
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
