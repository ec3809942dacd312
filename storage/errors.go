package storage

import "errors"

// Common errors for store construction and operations.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrInvalidKey       = errors.New("invalid key")
)
