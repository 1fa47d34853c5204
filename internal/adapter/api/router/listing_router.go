package router

import (
	"github.com/labstack/echo/v4"

	"oddservices/internal/adapter/api/handler"
)

func SetupListingRouter(e *echo.Echo) {
	listingHandler := handler.GetListingHandler()

	listings := e.Group("/v1/listings")
	listings.POST("", listingHandler.CreateListing)
	listings.GET("", listingHandler.ListListings)
	listings.GET("/:id", listingHandler.GetListing)
	listings.PATCH("/:id", listingHandler.UpdateListing)
	listings.DELETE("/:id", listingHandler.DeleteListing)
}
