package handler

import (
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework
)

// favoriteReq is the body of POST /v1/couponbook/favorites.
type favoriteReq struct {
	CouponID uint64 `json:"coupon_id"`
}

// AddFavorite handles POST /v1/couponbook/favorites.  It bookmarks one
// of the caller's coupons.  The coupon must belong to the caller's book
// (403 otherwise) and a coupon can only be favorited once (409).
func (h *CustomerHandler) AddFavorite(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req favoriteReq
	if err := c.Bind(&req); err != nil || req.CouponID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "coupon_id required"})
	}
	ctx := c.Request().Context()
	book, err := h.Books.GetByUser(ctx, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}
	fav, err := h.Favorites.Add(ctx, book.ID, req.CouponID)
	if err != nil {
		return writeRepoError(c, err, "coupon not found")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":            fav.ID,
		"couponbook_id": fav.CouponBookID,
		"coupon_id":     fav.CouponID,
		"added_at":      fav.AddedAt,
	})
}

// ListFavorites handles GET /v1/couponbook/favorites.
func (h *CustomerHandler) ListFavorites(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	book, err := h.Books.GetByUser(ctx, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}
	favs, err := h.Favorites.ListByBook(ctx, book.ID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}
	out := make([]echo.Map, 0, len(favs))
	for _, f := range favs {
		out = append(out, echo.Map{
			"id":            f.ID,
			"couponbook_id": f.CouponBookID,
			"coupon_id":     f.CouponID,
			"added_at":      f.AddedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"favorites": out})
}

// RemoveFavorite handles DELETE /v1/favorites/:id.  The coupon itself
// is untouched; only the bookmark entry is removed.
func (h *CustomerHandler) RemoveFavorite(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	favID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid favorite id"})
	}
	if err := h.Favorites.Remove(c.Request().Context(), favID, userID); err != nil {
		return writeRepoError(c, err, "favorite not found")
	}
	return c.NoContent(http.StatusNoContent)
}
