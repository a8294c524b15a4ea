package storage

import (
	"fmt"

	"streeteasy-monitor/apperrors"
	"streeteasy-monitor/utils"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Open returns the ListingStore for the named backend.
func Open(backend, dsn string, logger *utils.Logger) (ListingStore, error) {
	switch backend {
	case BackendPostgres, "":
		store, err := NewPostgresStore(dsn, logger)
		if err != nil {
			return nil, apperrors.Persistence("connect to postgres", err)
		}
		return store, nil
	case BackendMemory:
		logger.Warn("[storage] Using in-memory store; listings will not survive this process")
		return NewMemoryStore(), nil
	}
	return nil, apperrors.Config(fmt.Sprintf("unknown STORE_BACKEND %q", backend), nil)
}
