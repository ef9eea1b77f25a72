package kv

import (
	"context"
	"errors"
)

// ErrNotFound signals a key has no stored value.
var ErrNotFound = errors.New("key not found")

// Store is a point-get/point-put key-value store. Writes are full
// overwrites; there is no scan or range operation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
