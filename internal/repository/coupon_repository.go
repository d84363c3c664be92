package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/loyalty-coupon-book/internal/model"
)

// CouponRepo implements the issuance engine and coupon reads.  Issue is
// the only writer of coupons and the single authority over the capacity
// and duplicate-claim invariants: validation and insert run inside one
// transaction per template, and no other layer re-implements the
// checks.  A plain count-then-insert without this boundary would allow
// capacity overshoot under concurrent load.
type CouponRepo struct {
	db *sql.DB
}

// NewCouponRepo returns a new CouponRepo bound to the given database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

// DB exposes the underlying handle for transaction composition.
func (r *CouponRepo) DB() *sql.DB { return r.db }

// Issue claims a coupon for a coupon book against a template.  The
// checks run fail-fast in a fixed order:
//
//  1. template exists             -> sql.ErrNoRows
//  2. template active             -> Rejection(expired)
//  3. capacity left (if finite)   -> Rejection(sold_out)
//  4. no prior claim by this book -> ErrDuplicateClaim
//  5. insert with saved_at = now
//
// Steps 2-5 execute under a SELECT ... FOR UPDATE on the template row,
// serialising concurrent issuance per template so the live count in
// step 3 cannot overshoot.  The unique key on (couponbook_id,
// template_id) backstops step 4: even a racing insert that slipped past
// the existence check surfaces as ErrDuplicateClaim, never as a second
// coupon.
func (r *CouponRepo) Issue(ctx context.Context, couponbookID, templateID uint64) (*model.Coupon, error) {
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

	lockQ := `SELECT t.first_n_persons, (` + ActiveTemplateExpr("t") + `) FROM coupon_templates t WHERE t.id = ? FOR UPDATE`
	var firstN uint32
	var active bool
	if err := tx.QueryRowContext(ctx, lockQ, templateID).Scan(&firstN, &active); err != nil {
		return nil, err
	}
	if !active {
		return nil, Reject(ReasonExpired)
	}
	if firstN > 0 {
		var issued uint32
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM coupons WHERE template_id = ?`, templateID,
		).Scan(&issued); err != nil {
			return nil, err
		}
		if issued >= firstN {
			return nil, Reject(ReasonSoldOut)
		}
	}
	var claimed bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM coupons WHERE couponbook_id = ? AND template_id = ?)`,
		couponbookID, templateID,
	).Scan(&claimed); err != nil {
		return nil, err
	}
	if claimed {
		return nil, ErrDuplicateClaim
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO coupons (couponbook_id, template_id) VALUES (?, ?)`,
		couponbookID, templateID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateClaim
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	c := &model.Coupon{ID: uint64(id), CouponBookID: couponbookID, TemplateID: templateID}
	if err := tx.QueryRowContext(ctx,
		`SELECT saved_at FROM coupons WHERE id = ?`, c.ID,
	).Scan(&c.SavedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return c, nil
}

// CouponDetail carries a coupon together with the template and reward
// fields the completion/expiry projection needs, plus a live stamp
// count and favorite flag.  RewardAmount is 0 when the template has no
// reward info.
type CouponDetail struct {
	ID           uint64
	CouponBookID uint64
	TemplateID   uint64
	PlaceID      uint64
	ImageURL     string
	SavedAt      time.Time
	ValidUntil   *time.Time
	RewardAmount uint32
	Reward       string
	StampCount   uint32
	IsFavorite   bool
}

const couponDetailCols = `c.id, c.couponbook_id, c.template_id, t.place_id, t.image_url, c.saved_at, t.valid_until,
	       COALESCE(ri.amount, 0), COALESCE(ri.reward, ''),
	       (SELECT COUNT(*) FROM stamps s WHERE s.coupon_id = c.id),
	       EXISTS(SELECT 1 FROM favorite_coupons f WHERE f.coupon_id = c.id)`

const couponDetailFrom = ` FROM coupons c
	       JOIN coupon_templates t ON t.id = c.template_id
	       LEFT JOIN reward_infos ri ON ri.template_id = t.id`

func scanCouponDetail(row interface{ Scan(...interface{}) error }) (*CouponDetail, error) {
	var d CouponDetail
	var validUntil sql.NullTime
	if err := row.Scan(
		&d.ID, &d.CouponBookID, &d.TemplateID, &d.PlaceID, &d.ImageURL, &d.SavedAt, &validUntil,
		&d.RewardAmount, &d.Reward, &d.StampCount, &d.IsFavorite,
	); err != nil {
		return nil, err
	}
	if validUntil.Valid {
		vu := validUntil.Time
		d.ValidUntil = &vu
	}
	return &d, nil
}

// GetDetailForUser loads one coupon with projection inputs, enforcing
// ownership: sql.ErrNoRows when the coupon does not exist, ErrForbidden
// when it belongs to another customer's book.
func (r *CouponRepo) GetDetailForUser(ctx context.Context, couponID, userID uint64) (*CouponDetail, error) {
	q := `SELECT b.user_id, ` + couponDetailCols + couponDetailFrom + `
	       JOIN couponbooks b ON b.id = c.couponbook_id
	       WHERE c.id = ?`
	var ownerID uint64
	var d CouponDetail
	var validUntil sql.NullTime
	err := r.db.QueryRowContext(ctx, q, couponID).Scan(
		&ownerID,
		&d.ID, &d.CouponBookID, &d.TemplateID, &d.PlaceID, &d.ImageURL, &d.SavedAt, &validUntil,
		&d.RewardAmount, &d.Reward, &d.StampCount, &d.IsFavorite,
	)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	if validUntil.Valid {
		vu := validUntil.Time
		d.ValidUntil = &vu
	}
	return &d, nil
}

// ListByBook returns all coupons of a book with projection inputs,
// newest claims first.
func (r *CouponRepo) ListByBook(ctx context.Context, couponbookID uint64) ([]CouponDetail, error) {
	q := `SELECT ` + couponDetailCols + couponDetailFrom + `
	       WHERE c.couponbook_id = ?
	       ORDER BY c.saved_at DESC, c.id DESC`
	rows, err := r.db.QueryContext(ctx, q, couponbookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CouponDetail, 0)
	for rows.Next() {
		d, err := scanCouponDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteCascade removes a coupon, its stamps and its favorite entry in
// one transaction after verifying the caller owns the coupon's book.
// Deleting the stamps unbinds their receipts, which become eligible for
// accrual again.  Partial cascade application is never observable: the
// transaction either commits all three deletes or none.
func (r *CouponRepo) DeleteCascade(ctx context.Context, couponID, userID uint64) error {
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
	              FROM coupons c
	              JOIN couponbooks b ON b.id = c.couponbook_id
	              WHERE c.id = ? FOR UPDATE`
	var ownerID uint64
	if err := tx.QueryRowContext(ctx, ownQ, couponID).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stamps WHERE coupon_id = ?`, couponID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM favorite_coupons WHERE coupon_id = ?`, couponID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM coupons WHERE id = ?`, couponID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
