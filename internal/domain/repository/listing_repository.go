package repository

import (
	"context"

	"oddservices/internal/domain/entity"
)

// SnapshotFunc receives the full materialized collection. It is invoked once
// immediately after a watch is registered and again after every change.
type SnapshotFunc func(listings []entity.Listing)

// UnsubscribeFunc detaches a watch. Safe to call more than once; after the
// first call no further snapshots are delivered.
type UnsubscribeFunc func()

type ListingRepository interface {
	// Create assigns a fresh key, stamps CreatedAt and the default status,
	// writes the record and returns the assigned id.
	Create(ctx context.Context, listing *entity.Listing) (string, error)

	GetByID(ctx context.Context, id string) (*entity.Listing, error)

	// List returns a one-shot snapshot of the whole collection.
	List(ctx context.Context) ([]entity.Listing, error)

	// Update applies only the fields present in the patch. ID and CreatedAt
	// are never touched.
	Update(ctx context.Context, id string, patch entity.ListingPatch) error

	// Delete removes the record. Deleting an id that does not exist is not
	// an error.
	Delete(ctx context.Context, id string) error

	// Watch registers a continuous full-snapshot listener on the collection.
	Watch(ctx context.Context, fn SnapshotFunc) (UnsubscribeFunc, error)
}
