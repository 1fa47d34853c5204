package router

import (
	"github.com/labstack/echo/v4"
)

func Setup(e *echo.Echo) {
	SetupListingRouter(e)
	SetupHealthRouter(e)
}
