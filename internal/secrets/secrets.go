// Package secrets defines the credential store contract the session layer
// persists through, plus a file-backed implementation and an in-memory one
// for tests and embedding hosts that bring their own keychain.
package secrets

import "errors"

// ErrNotFound is returned by Get for keys with no stored value.
var ErrNotFound = errors.New("secrets: key not found")

// Store is an opaque persistent key-value store for credentials.
// Implementations must treat each operation as atomic per key.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	RemoveAll() error
}
