package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/loyalty-coupon-book/internal/model"
)

// CouponBookRepo provides data access to the couponbooks table.  Every
// customer owns exactly one book; it is created by EnsureLedger during
// identity creation, never implicitly on first use.
type CouponBookRepo struct {
	db *sql.DB
}

// NewCouponBookRepo returns a new CouponBookRepo bound to the given database.
func NewCouponBookRepo(db *sql.DB) *CouponBookRepo { return &CouponBookRepo{db: db} }

// EnsureLedger creates the coupon book for a customer if it does not
// exist yet and returns its id.  The call is idempotent: the unique key
// on user_id makes a second call a no-op that returns the existing
// book.  The identity-creation flow calls this explicitly, replacing
// the hidden create-on-signup event hook of earlier revisions.
func (r *CouponBookRepo) EnsureLedger(ctx context.Context, userID uint64) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO couponbooks (user_id) VALUES (?) ON DUPLICATE KEY UPDATE id = id`,
		userID,
	)
	if err != nil {
		return 0, err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		return uint64(id), nil
	}
	// The row already existed; look it up.
	var id uint64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM couponbooks WHERE user_id = ?`, userID,
	).Scan(&id)
	return id, err
}

// GetByUser returns the coupon book owned by the given customer.
// sql.ErrNoRows is returned when no book exists, which normally cannot
// happen because EnsureLedger runs at identity creation.
func (r *CouponBookRepo) GetByUser(ctx context.Context, userID uint64) (*model.CouponBook, error) {
	const q = `SELECT id, user_id, created_at FROM couponbooks WHERE user_id = ?`
	var b model.CouponBook
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&b.ID, &b.UserID, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// BookSummary is the coupon book detail response: the book plus live
// counts of its favorites, coupons and the customer's stamps.  All
// three are computed from the base tables on every call.
type BookSummary struct {
	ID             uint64 `json:"id"`
	UserID         uint64 `json:"user_id"`
	FavoriteCounts uint32 `json:"favorite_counts"`
	CouponCounts   uint32 `json:"coupon_counts"`
	StampCounts    uint32 `json:"stamp_counts"`
}

// Summary loads the book for a customer together with its live counts.
func (r *CouponBookRepo) Summary(ctx context.Context, userID uint64) (*BookSummary, error) {
	const q = `SELECT b.id, b.user_id,
	                  (SELECT COUNT(*) FROM favorite_coupons f WHERE f.couponbook_id = b.id),
	                  (SELECT COUNT(*) FROM coupons c WHERE c.couponbook_id = b.id),
	                  (SELECT COUNT(*) FROM stamps s WHERE s.customer_id = b.user_id)
	           FROM couponbooks b
	           WHERE b.user_id = ?`
	var s BookSummary
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&s.ID, &s.UserID, &s.FavoriteCounts, &s.CouponCounts, &s.StampCounts,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
