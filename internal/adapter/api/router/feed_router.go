package router

import (
	"github.com/labstack/echo/v4"

	"oddservices/internal/adapter/api/handler"
)

// SetupFeedRouter registers the WebSocket live feed.
func SetupFeedRouter(e *echo.Echo, feedHandler *handler.LiveFeedHandler) {
	e.GET("/ws/listings", feedHandler.HandleFeed)
}
