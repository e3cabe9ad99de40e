package credentials

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// secretBackend is a generic-password store addressed by service and
// account. Get returns ErrNotFound or ErrAccessDenied (wrapped) on failure.
type secretBackend interface {
	Get(service, account string) ([]byte, error)
	Set(service, account string, data []byte) error
}

// KeychainStore keeps the record in an OS secret store: the login
// Keychain on macOS, Secret Service or wincred elsewhere.
type KeychainStore struct {
	mu      sync.Mutex
	backend secretBackend
	service string
	account string
	logger  *zap.Logger
}

// NewKeychainStore uses the native Keychain on macOS and the keyring
// backend everywhere else.
func NewKeychainStore(logger *zap.Logger) *KeychainStore {
	return newSecretStore(nativeBackend(), logger)
}

// NewKeyringStore always goes through go-keyring.
func NewKeyringStore(logger *zap.Logger) *KeychainStore {
	return newSecretStore(keyringBackend{}, logger)
}

func newSecretStore(backend secretBackend, logger *zap.Logger) *KeychainStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeychainStore{
		backend: backend,
		service: ServiceName,
		account: currentAccount(),
		logger:  logger,
	}
}

func (s *KeychainStore) LoadAccessToken() (string, error) {
	cred, err := s.load()
	if err != nil {
		return "", err
	}
	if cred.AccessToken == "" {
		return "", fmt.Errorf("record has no access token: %w", ErrNotFound)
	}
	return cred.AccessToken, nil
}

func (s *KeychainStore) LoadRefreshToken() (string, bool) {
	cred, err := s.load()
	if err != nil || cred.RefreshToken == "" {
		return "", false
	}
	return cred.RefreshToken, true
}

func (s *KeychainStore) SaveTokens(access, refresh, expiresAt string) bool {
	if err := s.save(access, refresh, expiresAt); err != nil {
		s.logger.Warn("saving tokens failed",
			zap.String("service", s.service),
			zap.String("account", s.account),
			zap.Error(err))
		return false
	}
	return true
}

func (s *KeychainStore) load() (Credential, error) {
	data, err := s.backend.Get(s.service, s.account)
	if err != nil {
		return Credential{}, err
	}
	rec, err := parseRecord(data)
	if err != nil {
		return Credential{}, fmt.Errorf("%v: %w", err, ErrNotFound)
	}
	return rec.credential(), nil
}

func (s *KeychainStore) save(access, refresh, expiresAt string) error {
	if access == "" {
		return fmt.Errorf("empty access token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := newRecord()
	data, err := s.backend.Get(s.service, s.account)
	switch {
	case err == nil:
		if rec, err = parseRecord(data); err != nil {
			return err
		}
	case errors.Is(err, ErrNotFound):
	default:
		return err
	}

	rec.setTokens(access, refresh, expiresAt)
	out, err := rec.marshal()
	if err != nil {
		return err
	}
	return s.backend.Set(s.service, s.account, out)
}
