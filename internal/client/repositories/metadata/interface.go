// Package metadata is the client's local key/value store. The CLI keeps
// its session (access token, email, expiry) here between runs.
package metadata

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("metadata key not found")

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
