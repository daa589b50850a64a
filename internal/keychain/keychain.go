package keychain

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "gastobot"

// Accounts under which gastobot stores its secrets.
const (
	AccountBackendToken  = "backend-token"
	AccountTelegramToken = "telegram-token"
)

// Get retrieves a secret from the system keychain.
func Get(account string) (string, error) {
	return keyring.Get(serviceName, account)
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	return keyring.Set(serviceName, account, value)
}

// Resolve returns value when it is set, otherwise the keychain secret.
// A missing keychain entry yields "" and no error.
func Resolve(value, account string) (string, error) {
	if value != "" {
		return value, nil
	}
	secret, err := Get(account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return secret, err
}
