package model

import "time"

// Stamp is one accrual event against a coupon, authorised by a
// single-use receipt token.  The receipt token is unique across live
// stamps; deleting a stamp frees its token for reuse.
//
// Fields:
//  ID           – primary key identifier.
//  CouponID     – coupon the stamp was accrued on.
//  ReceiptToken – proof-of-purchase token consumed by this stamp (unique).
//  CustomerID   – customer the stamp was accrued for.
//  CreatedAt    – accrual timestamp; immutable.
type Stamp struct {
	ID           uint64    // stamps.id
	CouponID     uint64    // stamps.coupon_id
	ReceiptToken string    // stamps.receipt_token
	CustomerID   uint64    // stamps.customer_id
	CreatedAt    time.Time // stamps.created_at
}
