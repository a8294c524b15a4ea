package storage

import "errors"

// ErrNotFound is returned by Get when no listing has the identifier.
var ErrNotFound = errors.New("listing not found")
