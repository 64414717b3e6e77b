package redis

import "fmt"

const (
	// KeyPrefixStore is the prefix for collection document keys
	KeyPrefixStore = "clipbook:store:"
)

// StoreKey returns the Redis key for a named collection document
func StoreKey(name string) string {
	return KeyPrefixStore + name
}

// ExtractStoreName extracts the collection name from a Redis key
func ExtractStoreName(key string) (string, error) {
	if len(key) <= len(KeyPrefixStore) {
		return "", fmt.Errorf("invalid store key: %s", key)
	}
	return key[len(KeyPrefixStore):], nil
}
