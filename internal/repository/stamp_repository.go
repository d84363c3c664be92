package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/loyalty-coupon-book/internal/model"
)

// StampRepo implements the stamp accrual ledger.  Accrue is the only
// writer of stamps; its validation order and the unique key on
// stamps.receipt_token are the whole story of the single-use-receipt
// invariant.  Stamp counts are always live queries, never cached.
type StampRepo struct {
	db *sql.DB
}

// NewStampRepo returns a new StampRepo bound to the given database.
func NewStampRepo(db *sql.DB) *StampRepo { return &StampRepo{db: db} }

// AccrueResult reports a successful accrual: the created stamp, the
// coupon's new live stamp count and whether this accrual completed the
// coupon (reached the reward amount).
type AccrueResult struct {
	Stamp      model.Stamp
	StampCount uint32
	Completed  bool
}

// Accrue records one stamp on a coupon against a receipt token.  The
// checks run fail-fast in a fixed order:
//
//  1. coupon exists and its book belongs to customerID -> sql.ErrNoRows / ErrForbidden
//  2. live stamp count below the reward amount         -> Rejection(already_completed)
//  3. owning template still active                     -> Rejection(expired)
//  4. receipt token registered                         -> Rejection(unknown_receipt)
//  5. no live stamp references the receipt             -> Rejection(receipt_already_used)
//  6. insert the stamp
//
// The coupon row is locked FOR UPDATE so concurrent accruals on the
// same coupon serialise and the count in step 2 stays exact.  Step 5 is
// not a read: the insert itself enforces it through the unique
// receipt_token key, so two concurrent accruals for one receipt can
// never both succeed.  A template without reward info cannot be
// stamped; that case returns ErrValidation.
func (r *StampRepo) Accrue(ctx context.Context, couponID uint64, receiptToken string, customerID uint64) (*AccrueResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ownQ = `SELECT b.user_id, c.template_id
	              FROM coupons c
	              JOIN couponbooks b ON b.id = c.couponbook_id
	              WHERE c.id = ? FOR UPDATE`
	var ownerID, templateID uint64
	if err := tx.QueryRowContext(ctx, ownQ, couponID).Scan(&ownerID, &templateID); err != nil {
		return nil, err
	}
	if ownerID != customerID {
		return nil, ErrForbidden
	}

	var rewardAmount uint32
	err = tx.QueryRowContext(ctx,
		`SELECT amount FROM reward_infos WHERE template_id = ?`, templateID,
	).Scan(&rewardAmount)
	if err == sql.ErrNoRows || (err == nil && rewardAmount == 0) {
		return nil, ErrValidation
	}
	if err != nil {
		return nil, err
	}

	var count uint32
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stamps WHERE coupon_id = ?`, couponID,
	).Scan(&count); err != nil {
		return nil, err
	}
	if count >= rewardAmount {
		return nil, Reject(ReasonAlreadyCompleted)
	}

	activeQ := `SELECT (` + ActiveTemplateExpr("t") + `) FROM coupon_templates t WHERE t.id = ?`
	var active bool
	if err := tx.QueryRowContext(ctx, activeQ, templateID).Scan(&active); err != nil {
		return nil, err
	}
	if !active {
		return nil, Reject(ReasonExpired)
	}

	var registered bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM receipts WHERE token = ?)`, receiptToken,
	).Scan(&registered); err != nil {
		return nil, err
	}
	if !registered {
		return nil, Reject(ReasonUnknownReceipt)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO stamps (coupon_id, receipt_token, customer_id) VALUES (?, ?, ?)`,
		couponID, receiptToken, customerID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, Reject(ReasonReceiptUsed)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	stamp := model.Stamp{
		ID:           uint64(id),
		CouponID:     couponID,
		ReceiptToken: receiptToken,
		CustomerID:   customerID,
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM stamps WHERE id = ?`, stamp.ID,
	).Scan(&stamp.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	newCount := count + 1
	return &AccrueResult{
		Stamp:      stamp,
		StampCount: newCount,
		Completed:  newCount >= rewardAmount,
	}, nil
}

// CountByCoupon returns the live number of stamps on a coupon.
func (r *StampRepo) CountByCoupon(ctx context.Context, couponID uint64) (uint32, error) {
	var n uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stamps WHERE coupon_id = ?`, couponID,
	).Scan(&n)
	return n, err
}

// ListByCoupon returns all stamps of a coupon, enforcing that the
// coupon's book belongs to userID.  sql.ErrNoRows when the coupon does
// not exist, ErrForbidden on ownership mismatch.
func (r *StampRepo) ListByCoupon(ctx context.Context, couponID, userID uint64) ([]model.Stamp, error) {
	const ownQ = `SELECT b.user_id
	              FROM coupons c
	              JOIN couponbooks b ON b.id = c.couponbook_id
	              WHERE c.id = ?`
	var ownerID uint64
	if err := r.db.QueryRowContext(ctx, ownQ, couponID).Scan(&ownerID); err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	const q = `SELECT id, coupon_id, receipt_token, customer_id, created_at
	           FROM stamps
	           WHERE coupon_id = ?
	           ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, couponID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Stamp, 0)
	for rows.Next() {
		var s model.Stamp
		if err := rows.Scan(&s.ID, &s.CouponID, &s.ReceiptToken, &s.CustomerID, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByIDForUser returns one stamp, enforcing ownership through the
// coupon's book.
func (r *StampRepo) GetByIDForUser(ctx context.Context, stampID, userID uint64) (*model.Stamp, error) {
	const q = `SELECT s.id, s.coupon_id, s.receipt_token, s.customer_id, s.created_at, b.user_id
	           FROM stamps s
	           JOIN coupons c ON c.id = s.coupon_id
	           JOIN couponbooks b ON b.id = c.couponbook_id
	           WHERE s.id = ?`
	var s model.Stamp
	var ownerID uint64
	if err := r.db.QueryRowContext(ctx, q, stampID).Scan(
		&s.ID, &s.CouponID, &s.ReceiptToken, &s.CustomerID, &s.CreatedAt, &ownerID,
	); err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	return &s, nil
}

// Delete removes a stamp after verifying ownership, unbinding its
// receipt so the token becomes usable again.  The ownership read and
// the delete run in one transaction.
func (r *StampRepo) Delete(ctx context.Context, stampID, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const ownQ = `SELECT b.user_id
	              FROM stamps s
	              JOIN coupons c ON c.id = s.coupon_id
	              JOIN couponbooks b ON b.id = c.couponbook_id
	              WHERE s.id = ? FOR UPDATE`
	var ownerID uint64
	if err := tx.QueryRowContext(ctx, ownQ, stampID).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stamps WHERE id = ?`, stampID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
