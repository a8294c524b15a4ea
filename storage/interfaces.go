package storage

import (
	"context"

	"streeteasy-monitor/models"
)

// ListingStore is the interface any persistence backend must satisfy.
// Identifiers are unique: InsertIfAbsent reports false, not an error, for
// an identifier that is already stored.
type ListingStore interface {
	ExistingIDs(ctx context.Context) (models.IDSet, error)
	InsertIfAbsent(ctx context.Context, l *models.Listing) (bool, error)
	List(ctx context.Context, limit int) ([]*models.Listing, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	Close() error
}

// RawListingWriter is the interface for recording extracted listings
// before they are filtered.
type RawListingWriter interface {
	WriteRaw(listings []*models.Listing) error
	Close() error
}
