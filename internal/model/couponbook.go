package model

import "time"

// CouponBook is a customer's ledger container.  Exactly one book exists
// per customer; it owns the customer's coupons and favorite entries.
// Books are created idempotently when the customer identity is created
// (see CouponBookRepo.EnsureLedger), never lazily on first use.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owning customer (unique).
//  CreatedAt – creation timestamp.
type CouponBook struct {
	ID        uint64    // couponbooks.id
	UserID    uint64    // couponbooks.user_id
	CreatedAt time.Time // couponbooks.created_at
}
