package model

import "time"

// FavoriteCoupon is a bookmark entry over one coupon.  A coupon can be
// favorited at most once; deleting the coupon removes the bookmark.
//
// Fields:
//  ID           – primary key identifier.
//  CouponBookID – book the bookmark belongs to.
//  CouponID     – bookmarked coupon (unique).
//  AddedAt      – when the bookmark was created.
type FavoriteCoupon struct {
	ID           uint64    // favorite_coupons.id
	CouponBookID uint64    // favorite_coupons.couponbook_id
	CouponID     uint64    // favorite_coupons.coupon_id
	AddedAt      time.Time // favorite_coupons.added_at
}
