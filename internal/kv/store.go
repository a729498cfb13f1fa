// Package kv models the extension-style asynchronous key-value store the
// synchronization engine persists into. The contract is deliberately weak:
// each Get or Set is atomic on its own, but there are no transactions across
// calls, no locking, and no ordering between an in-flight Get and a Set
// issued elsewhere. Read-modify-write sequences built on top race with each
// other and resolve last-write-wins at collection granularity.
package kv

import (
	"context"
	"encoding/json"
)

// Store is the asynchronous key-value contract.
//
// Get returns the values for the requested keys; keys with no stored value
// are simply absent from the result map. Set persists every entry in the
// given map, overwriting existing values. Neither call coordinates with any
// other call.
type Store interface {
	Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, values map[string]json.RawMessage) error
}

// GetOne is a convenience for single-key reads. Returns nil when the key has
// no stored value.
func GetOne(ctx context.Context, s Store, key string) (json.RawMessage, error) {
	m, err := s.Get(ctx, []string{key})
	if err != nil {
		return nil, err
	}
	return m[key], nil
}

// SetOne is a convenience for single-key writes.
func SetOne(ctx context.Context, s Store, key string, value json.RawMessage) error {
	return s.Set(ctx, map[string]json.RawMessage{key: value})
}
