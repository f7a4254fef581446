package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend stores the token in a single 0600 file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// DefaultPath returns ~/.webadmin/token.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".webadmin", "token"), nil
}

// Name implements Backend.
func (f *FileBackend) Name() string { return "file" }

// Load returns the trimmed file content, "" when the file does not exist.
func (f *FileBackend) Load() (string, error) {
	if f.path == "" {
		return "", errors.New("no token path")
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token via a temp file and rename so readers never see a partial token.
func (f *FileBackend) Save(token string) error {
	if f.path == "" {
		return errors.New("no token path")
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("create temp token: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("chmod token: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Remove deletes the file. A missing file is not an error.
func (f *FileBackend) Remove() error {
	if f.path == "" {
		return errors.New("no token path")
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
