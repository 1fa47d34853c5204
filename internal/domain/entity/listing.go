package entity

// Listing is an odd-service offer stored in the realtime collection. The ID
// is the child key in the store and is never written inside the record
// itself; repositories reattach it when materializing snapshots.
type Listing struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Phone       string   `json:"phone,omitempty"`
	Price       *float64 `json:"price"`
	Barter      *string  `json:"barter"`
	CreatedAt   int64    `json:"created_at"`
	ExpiresAt   int64    `json:"expires_at,omitempty"`
	UserID      string   `json:"user_id,omitempty"`
	Status      string   `json:"status"`
}

// Expired reports whether the listing's expiration lies at or before the
// given instant (ms epoch). Listings without an expiration never expire.
func (l Listing) Expired(nowMillis int64) bool {
	return l.ExpiresAt != 0 && l.ExpiresAt <= nowMillis
}

// ListingPatch is a partial update. Nil fields are absent and must not be
// written; ID and CreatedAt are immutable and deliberately not representable
// here.
type ListingPatch struct {
	Title       *string  `json:"title"`
	Tags        []string `json:"tags"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Phone       *string  `json:"phone"`
	Price       *float64 `json:"price"`
	Barter      *string  `json:"barter"`
	ExpiresAt   *int64   `json:"expires_at"`
	UserID      *string  `json:"user_id"`
	Status      *string  `json:"status"`
}

// Empty reports whether the patch carries no fields at all.
func (p ListingPatch) Empty() bool {
	return p.Title == nil && p.Tags == nil && p.Description == nil &&
		p.Location == nil && p.Phone == nil && p.Price == nil &&
		p.Barter == nil && p.ExpiresAt == nil && p.UserID == nil &&
		p.Status == nil
}
