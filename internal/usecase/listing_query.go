package usecase

import (
	"sort"
	"strings"
	"time"

	"oddservices/internal/domain/entity"
)

// Query engine: pure derivations over a collection snapshot. Expiration is a
// query-time filter only; expired records stay in the store untouched.

// FilterActive keeps listings whose expiration is absent or still in the
// future. Pass zero to use the current time.
func FilterActive(list []entity.Listing, nowMillis int64) []entity.Listing {
	if nowMillis == 0 {
		nowMillis = time.Now().UnixMilli()
	}
	active := make([]entity.Listing, 0, len(list))
	for _, l := range list {
		if !l.Expired(nowMillis) {
			active = append(active, l)
		}
	}
	return active
}

// ApplySearch keeps listings whose title contains the query,
// case-insensitively. A blank query passes the list through unchanged.
func ApplySearch(list []entity.Listing, query string) []entity.Listing {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	matched := make([]entity.Listing, 0, len(list))
	for _, l := range list {
		if strings.Contains(strings.ToLower(l.Title), q) {
			matched = append(matched, l)
		}
	}
	return matched
}

// ApplyLocationFilter keeps listings whose location contains the filter,
// case-insensitively. A blank filter passes everything through; a listing
// without a location never matches a non-empty filter.
func ApplyLocationFilter(list []entity.Listing, location string) []entity.Listing {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return list
	}
	matched := make([]entity.Listing, 0, len(list))
	for _, l := range list {
		if l.Location != "" && strings.Contains(strings.ToLower(l.Location), loc) {
			matched = append(matched, l)
		}
	}
	return matched
}

// SortByRecency returns a copy ordered by createdAt descending. Listings
// without a createdAt sort as oldest.
func SortByRecency(list []entity.Listing) []entity.Listing {
	sorted := make([]entity.Listing, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})
	return sorted
}

// Visible derives the list a user sees. The stage order is fixed: active
// filter, then search, then location, then recency sort.
func Visible(list []entity.Listing, query, location string, nowMillis int64) []entity.Listing {
	return SortByRecency(ApplyLocationFilter(ApplySearch(FilterActive(list, nowMillis), query), location))
}
