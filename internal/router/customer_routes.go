package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/loyalty-coupon-book/internal/handler"
	"github.com/iliyamo/loyalty-coupon-book/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers browse
// active campaigns, claim coupons into their book, accrue stamps with
// receipt tokens and manage favorites.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)

	// The coupon book and its contents.
	g.GET("/couponbook", h.GetCouponBook)
	g.GET("/couponbook/coupons", h.ListCoupons)
	g.POST("/couponbook/coupons", h.IssueCoupon)

	// Individual coupons.  Deletion cascades to stamps and the favorite
	// entry and frees the stamped receipts.
	g.GET("/coupons/:id", h.GetCoupon)
	g.DELETE("/coupons/:id", h.DeleteCoupon)

	// Stamp accrual and inspection.
	g.GET("/coupons/:id/stamps", h.ListStamps)
	g.POST("/coupons/:id/stamps", h.AccrueStamp)
	g.GET("/stamps/:id", h.GetStamp)
	g.DELETE("/stamps/:id", h.DeleteStamp)

	// Favorites are bookmarks over the customer's own coupons.
	g.GET("/couponbook/favorites", h.ListFavorites)
	g.POST("/couponbook/favorites", h.AddFavorite)
	g.DELETE("/favorites/:id", h.RemoveFavorite)

	// Campaign discovery: the raw active listing and the curated ranking.
	g.GET("/templates", h.ListTemplates)
	g.GET("/curation", h.Curation)
}
