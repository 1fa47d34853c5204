package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oddservices/internal/adapter/repository"
	"oddservices/internal/domain/entity"
	"oddservices/pkg/errors"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"9841234567":       "9841234567",
		"+977 984-123-456": "977984123456",
		"(01) 555 0199":    "015550199",
		"no digits here":   "",
		"":                 "",
	}

	for raw, want := range cases {
		got := NormalizePhone(raw)
		assert.Equal(t, want, got, "input %q", raw)
		// Idempotent.
		assert.Equal(t, got, NormalizePhone(got))
	}
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"garden", "tools"}, SplitTags(" garden , tools ,, "))
	assert.Equal(t, []string{}, SplitTags(""))
	assert.Equal(t, []string{}, SplitTags(" , , "))
}

func TestValidateCreateRejections(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name    string
		input   CreateListingInput
		message string
	}{
		{
			name:    "empty title",
			input:   CreateListingInput{Title: "   ", Price: "500"},
			message: "title required",
		},
		{
			name:    "neither price nor barter",
			input:   CreateListingInput{Title: "Fix bike"},
			message: "price or barter required",
		},
		{
			name:    "unparseable price",
			input:   CreateListingInput{Title: "Fix bike", Price: "lots"},
			message: "invalid price",
		},
		{
			name:    "negative price",
			input:   CreateListingInput{Title: "Fix bike", Price: "-5"},
			message: "invalid price",
		},
		{
			name:    "short phone",
			input:   CreateListingInput{Title: "Fix bike", Price: "500", Phone: "12345"},
			message: "invalid phone",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCreate(tc.input, now)
			require.Error(t, err)
			assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestValidateCreateNormalizes(t *testing.T) {
	now := time.Now()

	listing, err := ValidateCreate(CreateListingInput{
		Title:     "  Fix bike  ",
		Tags:      "repair, bikes",
		Phone:     "+1 (984) 123-4567",
		Price:     "500",
		ExpiresIn: time.Hour,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "Fix bike", listing.Title)
	assert.Equal(t, []string{"repair", "bikes"}, listing.Tags)
	assert.Equal(t, "19841234567", listing.Phone)
	require.NotNil(t, listing.Price)
	assert.Equal(t, 500.0, *listing.Price)
	assert.Nil(t, listing.Barter)
	assert.Equal(t, now.Add(time.Hour).UnixMilli(), listing.ExpiresAt)
}

func TestValidateCreateEmptyPhoneIsNotInvalid(t *testing.T) {
	// Empty stays distinct from invalid-short: no phone at all is fine, and
	// so is a phone that normalizes to nothing.
	for _, phone := range []string{"", "   ", "+-+-"} {
		listing, err := ValidateCreate(CreateListingInput{Title: "Fix bike", Barter: "Want: lessons", Phone: phone}, time.Now())
		require.NoError(t, err, "phone %q", phone)
		assert.Empty(t, listing.Phone)
	}
}

func TestValidateCreatePriceAndBarterMayCoexist(t *testing.T) {
	listing, err := ValidateCreate(CreateListingInput{
		Title:  "Fix bike",
		Price:  "0",
		Barter: "Want: English lessons",
	}, time.Now())
	require.NoError(t, err)

	// Zero is a valid price, distinct from absent.
	require.NotNil(t, listing.Price)
	assert.Equal(t, 0.0, *listing.Price)
	require.NotNil(t, listing.Barter)
	assert.Equal(t, "Want: English lessons", *listing.Barter)
}

func TestCreateListingEndToEnd(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	uc := NewListingUseCase(repo)

	before := time.Now().UnixMilli()
	listing, err := uc.CreateListing(context.Background(), CreateListingInput{
		Title: "Fix bike",
		Price: "500",
	})
	require.NoError(t, err)
	after := time.Now().UnixMilli()

	snapshot, err := uc.ListListings(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	got := snapshot[0]
	assert.Equal(t, listing.ID, got.ID)
	assert.Equal(t, "Fix bike", got.Title)
	require.NotNil(t, got.Price)
	assert.Equal(t, 500.0, *got.Price)
	assert.Nil(t, got.Barter)
	assert.Equal(t, "active", got.Status)
	assert.GreaterOrEqual(t, got.CreatedAt, before)
	assert.LessOrEqual(t, got.CreatedAt, after)
}

func TestCreateListingExpirationIsQueryTimeOnly(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	uc := NewListingUseCase(repo)

	_, err := uc.CreateListing(context.Background(), CreateListingInput{
		Title:     "Fix bike",
		Price:     "500",
		ExpiresIn: time.Hour,
	})
	require.NoError(t, err)

	snapshot, err := uc.ListListings(context.Background())
	require.NoError(t, err)

	now := time.Now().UnixMilli()
	assert.Len(t, FilterActive(snapshot, now), 1)

	// Advance past the expiration: filtered out, but never deleted.
	later := now + 2*time.Hour.Milliseconds()
	assert.Empty(t, FilterActive(snapshot, later))

	snapshot, err = uc.ListListings(context.Background())
	require.NoError(t, err)
	assert.Len(t, snapshot, 1)
}

func TestUpdateListingPatchesOnlyGivenFields(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	uc := NewListingUseCase(repo)

	created, err := uc.CreateListing(context.Background(), CreateListingInput{
		Title:       "Fix bike",
		Description: "Any bike",
		Location:    "Kathmandu",
		Price:       "500",
	})
	require.NoError(t, err)

	title := "New title"
	err = uc.UpdateListing(context.Background(), created.ID, UpdateListingInput{Title: &title})
	require.NoError(t, err)

	got, err := uc.GetListing(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
	assert.Equal(t, "Any bike", got.Description)
	assert.Equal(t, "Kathmandu", got.Location)
	require.NotNil(t, got.Price)
	assert.Equal(t, 500.0, *got.Price)
}

func TestUpdateListingEmptyPhoneIsOmitted(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	uc := NewListingUseCase(repo)

	created, err := uc.CreateListing(context.Background(), CreateListingInput{
		Title: "Fix bike",
		Price: "500",
		Phone: "9841234567",
	})
	require.NoError(t, err)

	// A phone that normalizes to nothing counts as "not provided" on update
	// too: it is neither rejected nor written into the record.
	blank := "+-() "
	require.NoError(t, uc.UpdateListing(context.Background(), created.ID, UpdateListingInput{Phone: &blank}))

	got, err := uc.GetListing(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "9841234567", got.Phone)

	second, err := uc.CreateListing(context.Background(), CreateListingInput{Title: "Walk dogs", Barter: "homegrown veggies"})
	require.NoError(t, err)

	title := "Walk dogs daily"
	require.NoError(t, uc.UpdateListing(context.Background(), second.ID, UpdateListingInput{Title: &title, Phone: &blank}))

	record, ok := repo.Record(second.ID)
	require.True(t, ok)
	_, hasPhone := record["phone"]
	assert.False(t, hasPhone, "empty phone must not appear as a record key")
}

func TestUpdateListingValidation(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	uc := NewListingUseCase(repo)

	err := uc.UpdateListing(context.Background(), "", UpdateListingInput{})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	blank := "   "
	err = uc.UpdateListing(context.Background(), "some-id", UpdateListingInput{Title: &blank})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	short := "12345"
	err = uc.UpdateListing(context.Background(), "some-id", UpdateListingInput{Phone: &short})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	negative := -1.0
	err = uc.UpdateListing(context.Background(), "some-id", UpdateListingInput{Price: &negative})
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestDeleteListingIsIdempotent(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	uc := NewListingUseCase(repo)

	created, err := uc.CreateListing(context.Background(), CreateListingInput{Title: "Fix bike", Price: "500"})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteListing(context.Background(), created.ID))

	snapshot, err := uc.ListListings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot)

	// Deleting again is not an error.
	require.NoError(t, uc.DeleteListing(context.Background(), created.ID))

	err = uc.DeleteListing(context.Background(), "")
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))
}

func TestStoreErrorsPropagate(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	uc := NewListingUseCase(repo)

	repo.FailWrites(fmt.Errorf("store unavailable"))

	_, err := uc.CreateListing(context.Background(), CreateListingInput{Title: "Fix bike", Price: "500"})
	assert.True(t, errors.Is(err, "STORE_ERROR"))

	title := "x"
	err = uc.UpdateListing(context.Background(), "some-id", UpdateListingInput{Title: &title})
	assert.True(t, errors.Is(err, "STORE_ERROR"))

	err = uc.DeleteListing(context.Background(), "some-id")
	assert.True(t, errors.Is(err, "STORE_ERROR"))
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	uc := NewListingUseCase(repo)

	var snapshots [][]entity.Listing
	unsubscribe, err := uc.Subscribe(context.Background(), func(listings []entity.Listing) {
		snapshots = append(snapshots, listings)
	})
	require.NoError(t, err)

	// Initial snapshot arrives on subscription.
	require.Len(t, snapshots, 1)
	assert.Empty(t, snapshots[0])

	created, err := uc.CreateListing(context.Background(), CreateListingInput{Title: "Fix bike", Price: "500"})
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	require.Len(t, snapshots[1], 1)
	assert.Equal(t, created.ID, snapshots[1][0].ID)

	unsubscribe()
	unsubscribe() // harmless

	_, err = uc.CreateListing(context.Background(), CreateListingInput{Title: "Walk dogs", Price: "200"})
	require.NoError(t, err)
	assert.Len(t, snapshots, 2, "no delivery after unsubscribe")
}
