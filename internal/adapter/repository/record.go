package repository

import (
	"oddservices/internal/domain/entity"
)

// Canonical mapping between listings and stored records. The rule for
// optional fields: phone, expiresAt and userId are omitted from the record
// when they carry no value; price and barter are always stored keys, with an
// explicit null meaning "not set". The id lives in the child key only and is
// reattached on decode.

func encodeCreate(l *entity.Listing) map[string]interface{} {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}

	record := map[string]interface{}{
		"title":       l.Title,
		"tags":        tags,
		"description": l.Description,
		"location":    l.Location,
		"status":      l.Status,
		"createdAt":   l.CreatedAt,
	}

	if l.Phone != "" {
		record["phone"] = l.Phone
	}
	if l.ExpiresAt != 0 {
		record["expiresAt"] = l.ExpiresAt
	}
	if l.UserID != "" {
		record["userId"] = l.UserID
	}

	if l.Price != nil {
		record["price"] = *l.Price
	} else {
		record["price"] = nil
	}
	if l.Barter != nil {
		record["barter"] = *l.Barter
	} else {
		record["barter"] = nil
	}

	return record
}

func encodePatch(p entity.ListingPatch) map[string]interface{} {
	record := map[string]interface{}{}

	if p.Title != nil {
		record["title"] = *p.Title
	}
	if p.Tags != nil {
		record["tags"] = p.Tags
	}
	if p.Description != nil {
		record["description"] = *p.Description
	}
	if p.Location != nil {
		record["location"] = *p.Location
	}
	if p.Phone != nil {
		record["phone"] = *p.Phone
	}
	if p.Price != nil {
		record["price"] = *p.Price
	}
	if p.Barter != nil {
		record["barter"] = *p.Barter
	}
	if p.ExpiresAt != nil {
		record["expiresAt"] = *p.ExpiresAt
	}
	if p.UserID != nil {
		record["userId"] = *p.UserID
	}
	if p.Status != nil {
		record["status"] = *p.Status
	}

	return record
}

func decodeRecord(id string, data map[string]interface{}) entity.Listing {
	listing := entity.Listing{
		ID:          id,
		Title:       asString(data["title"]),
		Tags:        asStringSlice(data["tags"]),
		Description: asString(data["description"]),
		Location:    asString(data["location"]),
		Phone:       asString(data["phone"]),
		CreatedAt:   asInt64(data["createdAt"]),
		ExpiresAt:   asInt64(data["expiresAt"]),
		UserID:      asString(data["userId"]),
		Status:      asString(data["status"]),
	}

	if v, ok := data["price"]; ok && v != nil {
		price := asFloat64(v)
		listing.Price = &price
	}
	if v, ok := data["barter"]; ok && v != nil {
		barter := asString(v)
		listing.Barter = &barter
	}

	return listing
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStringSlice(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// Firestore hands numbers back as int64 or float64 depending on how they
// were written; accept both.
func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func asFloat64(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	default:
		return 0
	}
}
