package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gotd/td/session"
)

// FileStore keeps the single opaque session credential on local disk, whole
// file content with no framing. It implements gotd's session.Storage, so the
// connector persists rotated credentials through it synchronously. An absent
// file means first-run, unauthenticated.
type FileStore struct {
	path      string
	encryptor *encryptor
	mu        sync.Mutex
}

// NewFileStore creates a store backed by the given file path. Encryption at
// rest is enabled when TELECORD_SESSION_SECRET is set in the environment.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path cannot be empty")
	}

	enc, err := newEncryptor()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session encryptor: %w", err)
	}

	return &FileStore{path: path, encryptor: enc}, nil
}

// LoadSession returns the stored credential blob, or session.ErrNotFound on
// first run.
func (s *FileStore) LoadSession(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, session.ErrNotFound
	}

	plain, err := s.encryptor.Open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}
	return plain, nil
}

// StoreSession rewrites the credential blob atomically. Losing this write
// only forces a full re-authentication on next start, so callers treat
// failures as errors, not crash conditions.
func (s *FileStore) StoreSession(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := s.encryptor.Seal(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close session file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
