package ports

import "context"

// BackupStore is the local persistence behind the fallback cache. It is
// a flat key/value store; the cache layer decides which keys exist and
// what they hold.
type BackupStore interface {
	// Get retrieves the value stored under key.
	// Returns domain.ErrBackupNotFound if the key has no value.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
