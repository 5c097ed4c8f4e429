package repository

import "context"

// KeyValueStore is the persistence port behind the gallery state.
// Get reports found=false for a missing key; that is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
