package handler

import (
	"github.com/labstack/echo/v4"

	"oddservices/internal/usecase"
	"oddservices/pkg/errors"
	"oddservices/pkg/response"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

type createListingRequest struct {
	Title       string `json:"title" validate:"required"`
	Tags        string `json:"tags"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Phone       string `json:"phone"`
	Price       string `json:"price"`
	Barter      string `json:"barter"`
	ExpiresIn   string `json:"expires_in"` // preset label (7d, 3d, 1h); empty means no expiration
	UserID      string `json:"user_id"`
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	input := usecase.CreateListingInput{
		Title:       req.Title,
		Tags:        req.Tags,
		Description: req.Description,
		Location:    req.Location,
		Phone:       req.Phone,
		Price:       req.Price,
		Barter:      req.Barter,
		UserID:      req.UserID,
	}

	if req.ExpiresIn != "" {
		duration, ok := usecase.ExpirationByLabel(req.ExpiresIn)
		if !ok {
			return response.Error(c, errors.BadRequest("Unknown expiration preset", nil))
		}
		input.ExpiresIn = duration
	}

	listing, err := h.listingUseCase.CreateListing(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) ListListings(c echo.Context) error {
	listings, err := h.listingUseCase.ListListings(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	query := c.QueryParam("q")
	location := c.QueryParam("location")

	if c.QueryParam("include_expired") == "true" {
		listings = usecase.SortByRecency(usecase.ApplyLocationFilter(usecase.ApplySearch(listings, query), location))
	} else {
		listings = usecase.Visible(listings, query, location, 0)
	}

	return response.Success(c, listings)
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	listing, err := h.listingUseCase.GetListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

type updateListingRequest struct {
	Title       *string  `json:"title"`
	Tags        *string  `json:"tags"`
	Description *string  `json:"description"`
	Location    *string  `json:"location"`
	Phone       *string  `json:"phone"`
	Price       *float64 `json:"price"`
	Barter      *string  `json:"barter"`
	ExpiresAt   *int64   `json:"expires_at"`
	UserID      *string  `json:"user_id"`
	Status      *string  `json:"status"`
}

func (h *ListingHandler) UpdateListing(c echo.Context) error {
	id := c.Param("id")

	var req updateListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	err := h.listingUseCase.UpdateListing(c.Request().Context(), id, usecase.UpdateListingInput{
		Title:       req.Title,
		Tags:        req.Tags,
		Description: req.Description,
		Location:    req.Location,
		Phone:       req.Phone,
		Price:       req.Price,
		Barter:      req.Barter,
		ExpiresAt:   req.ExpiresAt,
		UserID:      req.UserID,
		Status:      req.Status,
	})
	if err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.GetListing(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) DeleteListing(c echo.Context) error {
	if err := h.listingUseCase.DeleteListing(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.NoContent(c)
}
