package model

import "time"

// Coupon is a customer's claimed instance of a CouponTemplate, tracked
// inside one coupon book.  The pair (CouponBookID, TemplateID) is unique:
// a customer may claim a given campaign at most once.  Coupons are
// create-only; the only mutation is deletion, which cascades to the
// coupon's stamps and favorite entry.
//
// Fields:
//  ID           – primary key identifier.
//  CouponBookID – book that owns this coupon.
//  TemplateID   – campaign this coupon was issued from.
//  SavedAt      – when the coupon was claimed; immutable once set.
type Coupon struct {
	ID           uint64    // coupons.id
	CouponBookID uint64    // coupons.couponbook_id
	TemplateID   uint64    // coupons.template_id
	SavedAt      time.Time // coupons.saved_at
}
