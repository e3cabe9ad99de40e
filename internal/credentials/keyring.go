package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

type keyringBackend struct{}

func (keyringBackend) Get(service, account string) ([]byte, error) {
	secret, err := keyring.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	return []byte(secret), nil
}

func (keyringBackend) Set(service, account string, data []byte) error {
	if err := keyring.Set(service, account, string(data)); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}
