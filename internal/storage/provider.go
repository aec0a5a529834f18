// Package storage defines the key-value store behind the word vault.
package storage

import "errors"

// Named keys held by the store.
const (
	KeyWords           = "words"
	KeyPendingWord     = "pendingWord"
	KeySourceURL       = "sourceUrl"
	KeyGoogleScriptURL = "googleScriptUrl"
)

// ErrInvalidKey is returned for key names a provider refuses to store.
var ErrInvalidKey = errors.New("storage: invalid key")

// UpdateFunc receives the current value (nil when unset) and returns the
// value to store.
type UpdateFunc func(current []byte) ([]byte, error)

// Provider is the interface for raw key-value operations.
// Implementations serialize writers, so Update and Take never interleave
// with another mutation on the same provider.
type Provider interface {
	// Get returns the stored value and whether the key was set.
	Get(key string) ([]byte, bool, error)
	// Set replaces the value for key.
	Set(key string, value []byte) error
	// Delete removes keys. Missing keys are not an error.
	Delete(keys ...string) error
	// Update runs a read-modify-write on key under the writer lock.
	Update(key string, fn UpdateFunc) error
	// Take reads and removes keys as one step. Unset keys are absent from the result.
	Take(keys ...string) (map[string][]byte, error)
	// Close releases the provider's resources.
	Close() error
}
