package handler

import (
	"log"      // diagnostics for skipped event publishes
	"net/http" // HTTP status codes
	"strings"  // trimming the receipt token
	"time"     // event timestamps

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/loyalty-coupon-book/internal/model"      // stamp model for response rendering
	"github.com/iliyamo/loyalty-coupon-book/internal/queue"      // event payloads
	queue_publisher "github.com/iliyamo/loyalty-coupon-book/internal/service"
)

// stampViews renders stamps for API responses.
func stampViews(stamps []model.Stamp) []echo.Map {
	out := make([]echo.Map, 0, len(stamps))
	for _, s := range stamps {
		out = append(out, echo.Map{
			"id":            s.ID,
			"coupon_id":     s.CouponID,
			"receipt_token": s.ReceiptToken,
			"created_at":    s.CreatedAt,
		})
	}
	return out
}

// accrueReq is the body of POST /v1/coupons/:id/stamps.
type accrueReq struct {
	ReceiptToken string `json:"receipt_token"`
}

// AccrueStamp handles POST /v1/coupons/:id/stamps.  It records one stamp
// on the coupon against a registered, unused receipt token.  Business
// rule rejections (completed coupon, expired campaign, unknown or used
// receipt) come back as 422 with a reason code.  When the accrual
// reaches the reward amount a coupon.completed event is published; a
// publish failure is logged by the publisher and never fails the
// request, because the stamp is already committed.
func (h *CustomerHandler) AccrueStamp(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coupon id"})
	}
	var req accrueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	token := strings.TrimSpace(req.ReceiptToken)
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receipt_token required"})
	}

	ctx := c.Request().Context()
	result, err := h.Stamps.Accrue(ctx, couponID, token, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon not found")
	}

	if result.Completed {
		detail, derr := h.Coupons.GetDetailForUser(ctx, couponID, userID)
		if derr != nil {
			log.Printf("coupon %d completed but event skipped: detail load failed: %v", couponID, derr)
		} else {
			_ = queue_publisher.PublishCouponCompleted(ctx, queue.CouponCompletedEvent{
				CouponID:     detail.ID,
				CouponBookID: detail.CouponBookID,
				TemplateID:   detail.TemplateID,
				PlaceID:      detail.PlaceID,
				CustomerID:   userID,
				Reward:       detail.Reward,
				StampCount:   result.StampCount,
				CompletedAt:  time.Now().UTC().Format(time.RFC3339),
			})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"stamp": echo.Map{
			"id":            result.Stamp.ID,
			"coupon_id":     result.Stamp.CouponID,
			"receipt_token": result.Stamp.ReceiptToken,
			"created_at":    result.Stamp.CreatedAt,
		},
		"stamp_count":  result.StampCount,
		"is_completed": result.Completed,
	})
}

// ListStamps handles GET /v1/coupons/:id/stamps.  It returns the stamps
// accrued on a coupon in accrual order; owner only.
func (h *CustomerHandler) ListStamps(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	couponID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coupon id"})
	}
	stamps, err := h.Stamps.ListByCoupon(c.Request().Context(), couponID, userID)
	if err != nil {
		return writeRepoError(c, err, "coupon not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"stamps": stampViews(stamps)})
}

// GetStamp handles GET /v1/stamps/:id.
func (h *CustomerHandler) GetStamp(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	stampID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stamp id"})
	}
	s, err := h.Stamps.GetByIDForUser(c.Request().Context(), stampID, userID)
	if err != nil {
		return writeRepoError(c, err, "stamp not found")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":            s.ID,
		"coupon_id":     s.CouponID,
		"receipt_token": s.ReceiptToken,
		"created_at":    s.CreatedAt,
	})
}

// DeleteStamp handles DELETE /v1/stamps/:id.  Deleting a stamp unbinds
// its receipt token, which becomes eligible for accrual again.
func (h *CustomerHandler) DeleteStamp(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	stampID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stamp id"})
	}
	if err := h.Stamps.Delete(c.Request().Context(), stampID, userID); err != nil {
		return writeRepoError(c, err, "stamp not found")
	}
	return c.NoContent(http.StatusNoContent)
}
