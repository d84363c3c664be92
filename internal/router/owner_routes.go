package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/loyalty-coupon-book/internal/handler"    // owner handlers
	"github.com/iliyamo/loyalty-coupon-book/internal/middleware" // JWT + role middlewares
)

// RegisterOwner registers OWNER-scoped endpoints under /v1/owner.
// All routes require a valid JWT and OWNER role.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Places ----
	g.POST("/places", o.CreatePlace)
	g.GET("/places", o.ListPlaces)

	// ---- Templates ----
	g.POST("/templates", o.CreateTemplate)
	g.GET("/templates/:id", o.GetTemplate)
	g.PATCH("/templates/:id/state", o.SetTemplateState)
	g.DELETE("/templates/:id", o.DeleteTemplate)

	// ---- Receipts ----
	g.POST("/receipts", o.RegisterReceipt)
}
