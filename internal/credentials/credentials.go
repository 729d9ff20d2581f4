package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "pwashell"

var ErrNotFound = errors.New("credentials: not found")

// Items are namespaced per app so two shells on one machine never see each
// other's secrets. The keyring account is "<namespace>:<key>".
func account(namespace, key string) string {
	return namespace + ":" + key
}

func StoreItem(namespace, key, value string) error {
	if err := keyring.Set(serviceName, account(namespace, key), value); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	if err := AddKnownKey(namespace, key); err != nil {
		return fmt.Errorf("index %s: %w", key, err)
	}
	return nil
}

func LoadItem(namespace, key string) (string, error) {
	val, err := keyring.Get(serviceName, account(namespace, key))
	if err != nil {
		return "", ErrNotFound
	}
	return val, nil
}

// DeleteItem reports whether there was anything to delete.
func DeleteItem(namespace, key string) (bool, error) {
	err := keyring.Delete(serviceName, account(namespace, key))
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		_ = RemoveKnownKey(namespace, key)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return true, RemoveKnownKey(namespace, key)
}

// PurgeNamespace deletes every indexed item of namespace.
func PurgeNamespace(namespace string) error {
	var errs []error
	for _, key := range KnownKeys(namespace) {
		if _, err := DeleteItem(namespace, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func StoreAppSecret(key string, value string) error {
	return keyring.Set(serviceName, "app:"+key, value)
}

func LoadAppSecret(key string) (string, error) {
	val, err := keyring.Get(serviceName, "app:"+key)
	if err != nil {
		return "", ErrNotFound
	}
	return val, nil
}

func DeleteAppSecret(key string) {
	_ = keyring.Delete(serviceName, "app:"+key)
}
