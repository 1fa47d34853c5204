package repository

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"oddservices/internal/domain/entity"
	"oddservices/internal/domain/repository"
	"oddservices/pkg/errors"
	"oddservices/pkg/logger"
)

type firestoreListingRepository struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreListingRepository(client *firestore.Client, collection string) repository.ListingRepository {
	return &firestoreListingRepository{
		client:     client,
		collection: collection,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	doc := r.client.Collection(r.collection).NewDoc()
	if doc.ID == "" {
		return "", errors.Store("Failed to assign listing key", nil)
	}

	listing.ID = doc.ID
	if listing.CreatedAt == 0 {
		listing.CreatedAt = time.Now().UnixMilli()
	}
	if listing.Status == "" {
		listing.Status = "active"
	}

	if _, err := doc.Set(ctx, encodeCreate(listing)); err != nil {
		return "", errors.Store("Failed to create listing", err)
	}

	return doc.ID, nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	if id == "" {
		return nil, errors.Validation("listing id required")
	}

	doc, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Store("Failed to get listing", err)
	}

	listing := decodeRecord(doc.Ref.ID, doc.Data())
	return &listing, nil
}

func (r *firestoreListingRepository) List(ctx context.Context) ([]entity.Listing, error) {
	iter := r.client.Collection(r.collection).Documents(ctx)
	defer iter.Stop()

	listings := []entity.Listing{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Store("Failed to list listings", err)
		}
		listings = append(listings, decodeRecord(doc.Ref.ID, doc.Data()))
	}

	return listings, nil
}

func (r *firestoreListingRepository) Update(ctx context.Context, id string, patch entity.ListingPatch) error {
	if id == "" {
		return errors.Validation("listing id required")
	}

	record := encodePatch(patch)
	if len(record) == 0 {
		return nil
	}

	// MergeAll keeps the untouched fields intact, matching the merge-update
	// primitive of the underlying store.
	if _, err := r.client.Collection(r.collection).Doc(id).Set(ctx, record, firestore.MergeAll); err != nil {
		return errors.Store("Failed to update listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.Validation("listing id required")
	}

	// Deleting a document that does not exist succeeds, which keeps delete
	// idempotent.
	if _, err := r.client.Collection(r.collection).Doc(id).Delete(ctx); err != nil {
		return errors.Store("Failed to delete listing", err)
	}

	return nil
}

func (r *firestoreListingRepository) Watch(ctx context.Context, fn repository.SnapshotFunc) (repository.UnsubscribeFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	iter := r.client.Collection(r.collection).Snapshots(ctx)

	w := &firestoreWatch{cancel: cancel, iter: iter}
	go w.run(fn)

	return w.stop, nil
}

type firestoreWatch struct {
	cancel context.CancelFunc
	iter   *firestore.QuerySnapshotIterator

	state  sync.Mutex // guards closed; never held while the callback runs
	closed bool
	once   sync.Once
}

func (w *firestoreWatch) run(fn repository.SnapshotFunc) {
	for {
		snap, err := w.iter.Next()
		if err != nil {
			// Cancelled on teardown, or the stream failed. Either way the
			// watch goes silent; there is no error channel on a watch.
			if status.Code(err) != codes.Canceled {
				logger.Error("listing watch stream ended: %v", err)
			}
			return
		}

		listings := []entity.Listing{}
		docs := snap.Documents
		for {
			doc, err := docs.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				logger.Error("listing watch snapshot read failed: %v", err)
				return
			}
			listings = append(listings, decodeRecord(doc.Ref.ID, doc.Data()))
		}

		w.deliver(fn, listings)
	}
}

// deliver skips the callback once the watch is stopped. No lock is held
// while the callback runs, so the callback may call its own unsubscribe
// without deadlocking.
func (w *firestoreWatch) deliver(fn repository.SnapshotFunc, listings []entity.Listing) {
	w.state.Lock()
	closed := w.closed
	w.state.Unlock()
	if closed {
		return
	}
	fn(listings)
}

func (w *firestoreWatch) stop() {
	w.once.Do(func() {
		w.state.Lock()
		w.closed = true
		w.state.Unlock()
		w.cancel()
		w.iter.Stop()
	})
}
