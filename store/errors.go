package store

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound indicates the requested key does not exist.
	ErrKeyNotFound = errors.New("store: key not found")

	// ErrInvalidKey indicates a key that cannot name a stored document.
	ErrInvalidKey = errors.New("store: invalid key")
)

// SerializationError wraps JSON encoding failures with the key involved.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("store: serialization error for key %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
