package workspace

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/csspublisher/internal/logfields"
)

// Manager handles the scratch directory lifecycle.
type Manager struct {
	dir string
}

// NewManager returns a manager for dir. An empty dir falls back to a fixed
// directory under the OS temp dir.
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "csspublisher", "repo")
	}
	return &Manager{dir: filepath.Clean(dir)}
}

// Path returns the scratch directory path. It may not exist.
func (m *Manager) Path() string {
	return m.dir
}

// Reset removes the scratch directory and everything under it, then ensures
// its parent exists. A missing directory is not an error.
func (m *Manager) Reset() error {
	if err := os.RemoveAll(m.dir); err != nil {
		return errors.FileSystemError("failed to remove scratch directory").
			WithCause(err).
			WithContext("path", m.dir).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(m.dir), 0o750); err != nil {
		return errors.FileSystemError("failed to create scratch parent directory").
			WithCause(err).
			WithContext("path", filepath.Dir(m.dir)).
			Build()
	}
	slog.Debug("Scratch directory reset", logfields.Path(m.dir))
	return nil
}

// WriteFile stores data under the scratch directory, e.g. the finished
// stylesheet kept for inspection.
func (m *Manager) WriteFile(name string, data []byte) (string, error) {
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.FileSystemError("failed to write scratch file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return path, nil
}
