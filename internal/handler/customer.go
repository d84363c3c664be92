package handler

import (
	"net/http" // HTTP status codes
	"time"     // timestamps for projection evaluation

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/loyalty-coupon-book/internal/curation"   // external recommender client
	"github.com/iliyamo/loyalty-coupon-book/internal/projection" // completion/expiry evaluator
	"github.com/iliyamo/loyalty-coupon-book/internal/repository" // repository layer
)

// CustomerHandler groups the repositories a customer needs to browse
// campaigns, claim coupons, accrue stamps and manage favorites.  All
// methods assume JWT authentication and role validation have already
// been performed by middleware.  Methods may return 401 Unauthorized if
// the user ID cannot be extracted from the context.  Every mutation is
// delegated to the repository layer, which runs it inside a transaction.
type CustomerHandler struct {
	Books       *repository.CouponBookRepo // access to the customer's coupon book
	Coupons     *repository.CouponRepo     // issuance engine and coupon reads
	Stamps      *repository.StampRepo      // stamp accrual ledger
	Favorites   *repository.FavoriteRepo   // bookmark index
	Templates   *repository.TemplateRepo   // active-template listing
	Recommender *curation.HTTPRecommender  // nil-safe; nil means no curation service
}

// NewCustomerHandler constructs a new CustomerHandler with the provided
// repositories.  All repository dependencies must be non-nil; the
// recommender may be nil when no curation service is configured.
func NewCustomerHandler(books *repository.CouponBookRepo, coupons *repository.CouponRepo, stamps *repository.StampRepo, favorites *repository.FavoriteRepo, templates *repository.TemplateRepo, rec *curation.HTTPRecommender) *CustomerHandler {
	if books == nil || coupons == nil || stamps == nil || favorites == nil || templates == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{
		Books:       books,
		Coupons:     coupons,
		Stamps:      stamps,
		Favorites:   favorites,
		Templates:   templates,
		Recommender: rec,
	}
}

// couponView renders one coupon with its derived status.  The live
// stamp count and favorite flag come from the detail query; completion
// and expiry are evaluated here so responses and write paths share the
// same rules.
func couponView(d *repository.CouponDetail, now time.Time) echo.Map {
	st := projection.Evaluate(d.ValidUntil, d.RewardAmount, d.StampCount, now)
	return echo.Map{
		"id":              d.ID,
		"couponbook_id":   d.CouponBookID,
		"template_id":     d.TemplateID,
		"place_id":        d.PlaceID,
		"image_url":       d.ImageURL,
		"saved_at":        d.SavedAt,
		"reward":          d.Reward,
		"stamp_count":     st.CurrentStamps,
		"required_stamps": st.RequiredStamps,
		"is_favorite":     d.IsFavorite,
		"is_completed":    st.IsCompleted,
		"is_expired":      st.IsExpired,
		"days_remaining":  st.DaysRemaining,
	}
}

// GetCouponBook handles GET /v1/couponbook.  It returns the caller's
// coupon book with live favorite, coupon and stamp counts.
func (h *CustomerHandler) GetCouponBook(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	summary, err := h.Books.Summary(c.Request().Context(), userID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}
	return c.JSON(http.StatusOK, summary)
}

// ListCoupons handles GET /v1/couponbook/coupons.  It returns every
// coupon in the caller's book with projection fields, newest first.
func (h *CustomerHandler) ListCoupons(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	book, err := h.Books.GetByUser(ctx, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}
	details, err := h.Coupons.ListByBook(ctx, book.ID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}
	now := time.Now().UTC()
	out := make([]echo.Map, 0, len(details))
	for i := range details {
		out = append(out, couponView(&details[i], now))
	}
	return c.JSON(http.StatusOK, echo.Map{"coupons": out})
}

// issueReq is the body of POST /v1/couponbook/coupons.
type issueReq struct {
	TemplateID uint64 `json:"template_id"`
}

// IssueCoupon handles POST /v1/couponbook/coupons.  It claims a coupon
// for the caller's book against the requested template.  The issuance
// engine rejects expired or sold-out campaigns with a reason code (422)
// and duplicate claims with 409.
func (h *CustomerHandler) IssueCoupon(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req issueReq
	if err := c.Bind(&req); err != nil || req.TemplateID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "template_id required"})
	}
	ctx := c.Request().Context()
	book, err := h.Books.GetByUser(ctx, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon book not found")
	}
	coupon, err := h.Coupons.Issue(ctx, book.ID, req.TemplateID)
	if err != nil {
		return writeRepoError(c, err, "template not found")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":            coupon.ID,
		"couponbook_id": coupon.CouponBookID,
		"template_id":   coupon.TemplateID,
		"saved_at":      coupon.SavedAt,
	})
}

// GetCoupon handles GET /v1/coupons/:id.  It returns the coupon with
// its derived status and the stamps accrued on it.  Only the owner of
// the coupon's book may view it.
func (h *CustomerHandler) GetCoupon(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coupon id"})
	}
	ctx := c.Request().Context()
	detail, err := h.Coupons.GetDetailForUser(ctx, couponID, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon not found")
	}
	stamps, err := h.Stamps.ListByCoupon(ctx, couponID, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon not found")
	}
	view := couponView(detail, time.Now().UTC())
	view["stamps"] = stampViews(stamps)
	return c.JSON(http.StatusOK, view)
}

// DeleteCoupon handles DELETE /v1/coupons/:id.  Removing a coupon also
// removes its stamps and favorite entry in one transaction; the stamped
// receipts become usable again.
func (h *CustomerHandler) DeleteCoupon(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coupon id"})
	}
	if err := h.Coupons.DeleteCascade(c.Request().Context(), couponID, userID); err != nil {
		return writeRepoError(c, err, "coupon not found")
	}
	return c.NoContent(http.StatusNoContent)
}
