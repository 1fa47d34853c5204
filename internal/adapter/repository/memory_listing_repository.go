package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"oddservices/internal/domain/entity"
	"oddservices/internal/domain/repository"
	"oddservices/pkg/errors"
)

// MemoryListingRepository keeps records in process the same way the realtime
// store does: a keyed collection of raw records, materialized into full
// snapshots for watchers. Used in development without a Firebase project and
// throughout the tests.
type MemoryListingRepository struct {
	mu       sync.Mutex
	records  map[string]map[string]interface{}
	watchers map[int]*memoryWatch
	nextID   int
	writeErr error
}

func NewMemoryListingRepository() *MemoryListingRepository {
	return &MemoryListingRepository{
		records:  map[string]map[string]interface{}{},
		watchers: map[int]*memoryWatch{},
	}
}

// FailWrites makes every subsequent write operation fail with err. Pass nil
// to restore normal behavior.
func (r *MemoryListingRepository) FailWrites(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeErr = err
}

func (r *MemoryListingRepository) Create(ctx context.Context, listing *entity.Listing) (string, error) {
	r.mu.Lock()
	if r.writeErr != nil {
		err := r.writeErr
		r.mu.Unlock()
		return "", errors.Store("Failed to create listing", err)
	}

	id := uuid.NewString()
	listing.ID = id
	if listing.CreatedAt == 0 {
		listing.CreatedAt = time.Now().UnixMilli()
	}
	if listing.Status == "" {
		listing.Status = "active"
	}

	r.records[id] = encodeCreate(listing)
	r.mu.Unlock()

	r.notify()
	return id, nil
}

func (r *MemoryListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	if id == "" {
		return nil, errors.Validation("listing id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	listing := decodeRecord(id, record)
	return &listing, nil
}

func (r *MemoryListingRepository) List(ctx context.Context) ([]entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(), nil
}

func (r *MemoryListingRepository) Update(ctx context.Context, id string, patch entity.ListingPatch) error {
	if id == "" {
		return errors.Validation("listing id required")
	}

	r.mu.Lock()
	if r.writeErr != nil {
		err := r.writeErr
		r.mu.Unlock()
		return errors.Store("Failed to update listing", err)
	}

	fields := encodePatch(patch)
	if len(fields) == 0 {
		r.mu.Unlock()
		return nil
	}

	record, ok := r.records[id]
	if !ok {
		// Merge-update creates the path, like the realtime store does.
		record = map[string]interface{}{}
		r.records[id] = record
	}
	for key, value := range fields {
		record[key] = value
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

func (r *MemoryListingRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.Validation("listing id required")
	}

	r.mu.Lock()
	if r.writeErr != nil {
		err := r.writeErr
		r.mu.Unlock()
		return errors.Store("Failed to delete listing", err)
	}
	delete(r.records, id)
	r.mu.Unlock()

	r.notify()
	return nil
}

func (r *MemoryListingRepository) Watch(ctx context.Context, fn repository.SnapshotFunc) (repository.UnsubscribeFunc, error) {
	w := &memoryWatch{fn: fn}

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = w
	initial := r.snapshotLocked()
	r.mu.Unlock()

	// Initial snapshot is delivered before Watch returns.
	w.deliver(initial)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.watchers, id)
			r.mu.Unlock()
			w.close()
		})
	}
	return unsubscribe, nil
}

// Record returns the raw stored record for a key, for inspection in tests.
func (r *MemoryListingRepository) Record(id string) (map[string]interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, false
	}
	copied := map[string]interface{}{}
	for k, v := range record {
		copied[k] = v
	}
	return copied, true
}

func (r *MemoryListingRepository) snapshotLocked() []entity.Listing {
	keys := make([]string, 0, len(r.records))
	for key := range r.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	listings := make([]entity.Listing, 0, len(keys))
	for _, key := range keys {
		listings = append(listings, decodeRecord(key, r.records[key]))
	}
	return listings
}

func (r *MemoryListingRepository) notify() {
	r.mu.Lock()
	snapshot := r.snapshotLocked()
	watchers := make([]*memoryWatch, 0, len(r.watchers))
	for _, w := range r.watchers {
		watchers = append(watchers, w)
	}
	r.mu.Unlock()

	for _, w := range watchers {
		w.deliver(snapshot)
	}
}

type memoryWatch struct {
	mu     sync.Mutex // serializes deliveries to the callback
	state  sync.Mutex // guards closed; never held while the callback runs
	fn     repository.SnapshotFunc
	closed bool
}

func (w *memoryWatch) deliver(listings []entity.Listing) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isClosed() {
		return
	}
	w.fn(listings)
}

// close only flips the flag, so the callback may unsubscribe its own watch
// without deadlocking. A delivery already underway finishes; no new one
// starts.
func (w *memoryWatch) close() {
	w.state.Lock()
	w.closed = true
	w.state.Unlock()
}

func (w *memoryWatch) isClosed() bool {
	w.state.Lock()
	defer w.state.Unlock()
	return w.closed
}
