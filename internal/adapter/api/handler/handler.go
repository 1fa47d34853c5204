package handler

import (
	"oddservices/internal/usecase"
)

var (
	listingHandler *ListingHandler
	healthHandler  *HealthHandler
)

func Setup(listingUseCase *usecase.ListingUseCase) {
	listingHandler = NewListingHandler(listingUseCase)
	healthHandler = NewHealthHandler()
}

func GetListingHandler() *ListingHandler {
	return listingHandler
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}
