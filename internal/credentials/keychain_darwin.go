//go:build darwin && cgo

package credentials

import (
	"errors"
	"fmt"

	"github.com/keybase/go-keychain"
)

// keychainBackend talks to the login Keychain directly so the item bytes
// stay exactly what Claude Code wrote.
type keychainBackend struct{}

func nativeBackend() secretBackend { return keychainBackend{} }

func genericPasswordQuery(service, account string) keychain.Item {
	q := keychain.NewItem()
	q.SetSecClass(keychain.SecClassGenericPassword)
	q.SetService(service)
	q.SetAccount(account)
	return q
}

func (keychainBackend) Get(service, account string) ([]byte, error) {
	q := genericPasswordQuery(service, account)
	q.SetMatchLimit(keychain.MatchLimitOne)
	q.SetReturnData(true)

	results, err := keychain.QueryItem(q)
	if err != nil {
		if errors.Is(err, keychain.ErrorItemNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	if len(results) == 0 || len(results[0].Data) == 0 {
		return nil, ErrNotFound
	}
	return results[0].Data, nil
}

func (keychainBackend) Set(service, account string, data []byte) error {
	update := keychain.NewItem()
	update.SetData(data)

	err := keychain.UpdateItem(genericPasswordQuery(service, account), update)
	if errors.Is(err, keychain.ErrorItemNotFound) {
		item := keychain.NewGenericPassword(service, account, "", data, "")
		err = keychain.AddItem(item)
	}
	if err != nil {
		return fmt.Errorf("keychain write: %w", err)
	}
	return nil
}
