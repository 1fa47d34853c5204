package usecase

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"oddservices/internal/domain/entity"
	"oddservices/internal/domain/repository"
	"oddservices/pkg/errors"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
}

func NewListingUseCase(listingRepo repository.ListingRepository) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
	}
}

// CreateListingInput carries the raw form fields of the create flow. Price
// and barter arrive as free text; tags are comma-separated.
type CreateListingInput struct {
	Title       string
	Tags        string
	Description string
	Location    string
	Phone       string
	Price       string
	Barter      string
	ExpiresIn   time.Duration // zero means the listing never expires
	UserID      string
	Status      string
}

// ExpirationOption is one of the durations offered by the create flow.
type ExpirationOption struct {
	Label    string
	Duration time.Duration
}

// ExpirationOptions are the presets offered to callers, most generous first.
var ExpirationOptions = []ExpirationOption{
	{Label: "7d", Duration: 7 * 24 * time.Hour},
	{Label: "3d", Duration: 3 * 24 * time.Hour},
	{Label: "1h", Duration: time.Hour},
}

func ExpirationByLabel(label string) (time.Duration, bool) {
	for _, opt := range ExpirationOptions {
		if opt.Label == label {
			return opt.Duration, true
		}
	}
	return 0, false
}

// NormalizePhone strips every non-digit character. Total and idempotent.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SplitTags turns comma-separated free text into trimmed, non-empty labels.
func SplitTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ValidateCreate is the pure half of the create flow: it checks the input
// rules and produces a normalized listing with the resolved absolute
// expiration. The store adapter stamps id, createdAt and the default status.
//
// A phone that normalizes to nothing counts as "no phone provided"; only a
// non-empty normalized phone shorter than 7 digits is rejected.
func ValidateCreate(input CreateListingInput, now time.Time) (*entity.Listing, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.Validation("title required")
	}

	priceRaw := strings.TrimSpace(input.Price)
	barterRaw := strings.TrimSpace(input.Barter)
	if priceRaw == "" && barterRaw == "" {
		return nil, errors.Validation("price or barter required")
	}

	var price *float64
	if priceRaw != "" {
		parsed, err := strconv.ParseFloat(priceRaw, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
			return nil, errors.Validation("invalid price")
		}
		price = &parsed
	}

	var barter *string
	if barterRaw != "" {
		barter = &barterRaw
	}

	phone := NormalizePhone(input.Phone)
	if phone != "" && len(phone) < 7 {
		return nil, errors.Validation("invalid phone")
	}

	listing := &entity.Listing{
		Title:       title,
		Tags:        SplitTags(input.Tags),
		Description: input.Description,
		Location:    input.Location,
		Phone:       phone,
		Price:       price,
		Barter:      barter,
		UserID:      input.UserID,
		Status:      input.Status,
	}
	if input.ExpiresIn > 0 {
		listing.ExpiresAt = now.Add(input.ExpiresIn).UnixMilli()
	}

	return listing, nil
}

func (uc *ListingUseCase) CreateListing(ctx context.Context, input CreateListingInput) (*entity.Listing, error) {
	listing, err := ValidateCreate(input, time.Now())
	if err != nil {
		return nil, err
	}

	if _, err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	return listing, nil
}

// UpdateListingInput is a partial edit; nil fields are left untouched. ID
// and createdAt cannot be updated.
type UpdateListingInput struct {
	Title       *string
	Tags        *string
	Description *string
	Location    *string
	Phone       *string
	Price       *float64
	Barter      *string
	ExpiresAt   *int64
	UserID      *string
	Status      *string
}

func (uc *ListingUseCase) UpdateListing(ctx context.Context, id string, input UpdateListingInput) error {
	if id == "" {
		return errors.Validation("listing id required")
	}

	var patch entity.ListingPatch

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return errors.Validation("title required")
		}
		patch.Title = &title
	}
	if input.Tags != nil {
		patch.Tags = SplitTags(*input.Tags)
	}
	if input.Description != nil {
		patch.Description = input.Description
	}
	if input.Location != nil {
		patch.Location = input.Location
	}
	if input.Phone != nil {
		// Normalizes to nothing means "not provided", same as on create;
		// never write an empty phone into the record.
		if phone := NormalizePhone(*input.Phone); phone != "" {
			if len(phone) < 7 {
				return errors.Validation("invalid phone")
			}
			patch.Phone = &phone
		}
	}
	if input.Price != nil {
		if math.IsNaN(*input.Price) || math.IsInf(*input.Price, 0) || *input.Price < 0 {
			return errors.Validation("invalid price")
		}
		patch.Price = input.Price
	}
	if input.Barter != nil {
		patch.Barter = input.Barter
	}
	if input.ExpiresAt != nil {
		patch.ExpiresAt = input.ExpiresAt
	}
	if input.UserID != nil {
		patch.UserID = input.UserID
	}
	if input.Status != nil {
		patch.Status = input.Status
	}

	if patch.Empty() {
		return nil
	}

	return uc.listingRepo.Update(ctx, id, patch)
}

func (uc *ListingUseCase) DeleteListing(ctx context.Context, id string) error {
	if id == "" {
		return errors.Validation("listing id required")
	}
	return uc.listingRepo.Delete(ctx, id)
}

func (uc *ListingUseCase) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	return uc.listingRepo.GetByID(ctx, id)
}

func (uc *ListingUseCase) ListListings(ctx context.Context) ([]entity.Listing, error) {
	return uc.listingRepo.List(ctx)
}

// Subscribe attaches a full-snapshot listener on the collection. The
// returned teardown is idempotent and stops all further delivery.
func (uc *ListingUseCase) Subscribe(ctx context.Context, fn repository.SnapshotFunc) (repository.UnsubscribeFunc, error) {
	return uc.listingRepo.Watch(ctx, fn)
}
