// Package storage holds the key-value backends the board persists through.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// KV is a flat key-value store. Values are opaque bytes; callers own the encoding.
type KV interface {
	// Get returns ErrNotFound when the key was never written.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
