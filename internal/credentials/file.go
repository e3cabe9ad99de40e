package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// fileMu guards read-modify-write cycles on credentials files.
var fileMu sync.Mutex

// DefaultFilePath is where Claude Code keeps the record when it has no
// keychain to write to.
func DefaultFilePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", ".credentials.json")
}

// FileStore reads and writes the credentials record as a plain JSON file.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if path == "" {
		path = DefaultFilePath()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) LoadAccessToken() (string, error) {
	cred, err := s.load()
	if err != nil {
		return "", err
	}
	if cred.AccessToken == "" {
		return "", fmt.Errorf("%s: no access token: %w", s.path, ErrNotFound)
	}
	return cred.AccessToken, nil
}

func (s *FileStore) LoadRefreshToken() (string, bool) {
	cred, err := s.load()
	if err != nil || cred.RefreshToken == "" {
		return "", false
	}
	return cred.RefreshToken, true
}

func (s *FileStore) SaveTokens(access, refresh, expiresAt string) bool {
	if err := s.save(access, refresh, expiresAt); err != nil {
		s.logger.Warn("saving tokens failed", zap.String("path", s.path), zap.Error(err))
		return false
	}
	return true
}

func (s *FileStore) load() (Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return Credential{}, fmt.Errorf("reading %s: %w", s.path, ErrAccessDenied)
		}
		return Credential{}, fmt.Errorf("reading %s: %v: %w", s.path, err, ErrNotFound)
	}
	rec, err := parseRecord(data)
	if err != nil {
		return Credential{}, fmt.Errorf("%v: %w", err, ErrNotFound)
	}
	return rec.credential(), nil
}

func (s *FileStore) save(access, refresh, expiresAt string) error {
	if access == "" {
		return fmt.Errorf("empty access token")
	}

	fileMu.Lock()
	defer fileMu.Unlock()

	rec := newRecord()
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if rec, err = parseRecord(data); err != nil {
			// Refuse to clobber a record we cannot read back.
			return err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("reading credentials: %w", err)
	}

	rec.setTokens(access, refresh, expiresAt)
	out, err := rec.marshal()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credentials dir: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}
