package credentials

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/zalando/go-keyring"
)

// The OS keyring cannot enumerate accounts, so each namespace keeps its own
// list of stored keys.
func indexAccount(namespace string) string {
	return "index:" + namespace
}

func AddKnownKey(namespace, key string) error {
	keys := KnownKeys(namespace)
	if slices.Contains(keys, key) {
		return nil
	}
	keys = append(keys, key)
	slices.Sort(keys)
	return saveIndex(namespace, keys)
}

func RemoveKnownKey(namespace, key string) error {
	keys := KnownKeys(namespace)
	i := slices.Index(keys, key)
	if i < 0 {
		return nil
	}
	return saveIndex(namespace, slices.Delete(keys, i, i+1))
}

func KnownKeys(namespace string) []string {
	raw, err := keyring.Get(serviceName, indexAccount(namespace))
	if err != nil {
		return nil
	}
	var keys []string
	_ = json.Unmarshal([]byte(raw), &keys)
	return keys
}

func saveIndex(namespace string, keys []string) error {
	if len(keys) == 0 {
		err := keyring.Delete(serviceName, indexAccount(namespace))
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	data, _ := json.Marshal(keys)
	return keyring.Set(serviceName, indexAccount(namespace), string(data))
}
