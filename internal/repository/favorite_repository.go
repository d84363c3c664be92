package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/loyalty-coupon-book/internal/model"
)

// FavoriteRepo maintains the bookmark index over coupons.  A coupon can
// carry at most one favorite entry; the unique key on coupon_id makes
// the add atomic against concurrent requests.
type FavoriteRepo struct {
	db *sql.DB
}

// NewFavoriteRepo returns a new FavoriteRepo bound to the given database.
func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

// Add bookmarks a coupon in the given book.  The coupon must belong to
// that book (ErrForbidden otherwise) and must not be favorited yet
// (ErrAlreadyFavorite).  The uniqueness is enforced by the insert, not
// by a prior read.  The coupon row is locked FOR UPDATE so a concurrent
// cascade delete cannot slip between the ownership check and the
// insert; a foreign-key rejection from a delete that won the lock first
// maps to sql.ErrNoRows, same as a coupon that never existed.
func (r *FavoriteRepo) Add(ctx context.Context, couponbookID, couponID uint64) (*model.FavoriteCoupon, error) {
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

	var actualBookID uint64
	err = tx.QueryRowContext(ctx,
		`SELECT couponbook_id FROM coupons WHERE id = ? FOR UPDATE`, couponID,
	).Scan(&actualBookID)
	if err != nil {
		return nil, err
	}
	if actualBookID != couponbookID {
		return nil, ErrForbidden
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO favorite_coupons (couponbook_id, coupon_id) VALUES (?, ?)`,
		couponbookID, couponID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyFavorite
		}
		if isMissingParent(err) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	fav := &model.FavoriteCoupon{ID: uint64(id), CouponBookID: couponbookID, CouponID: couponID}
	if err := tx.QueryRowContext(ctx,
		`SELECT added_at FROM favorite_coupons WHERE id = ?`, fav.ID,
	).Scan(&fav.AddedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return fav, nil
}

// Remove deletes a favorite entry after verifying the caller owns its
// book.  sql.ErrNoRows when the entry does not exist.
func (r *FavoriteRepo) Remove(ctx context.Context, favoriteID, userID uint64) error {
	const q = `SELECT b.user_id
	           FROM favorite_coupons f
	           JOIN couponbooks b ON b.id = f.couponbook_id
	           WHERE f.id = ?`
	var ownerID uint64
	if err := r.db.QueryRowContext(ctx, q, favoriteID).Scan(&ownerID); err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorite_coupons WHERE id = ?`, favoriteID)
	return err
}

// ListByBook returns all favorite entries of a book, newest first.
func (r *FavoriteRepo) ListByBook(ctx context.Context, couponbookID uint64) ([]model.FavoriteCoupon, error) {
	const q = `SELECT id, couponbook_id, coupon_id, added_at
	           FROM favorite_coupons
	           WHERE couponbook_id = ?
	           ORDER BY added_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, couponbookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.FavoriteCoupon, 0)
	for rows.Next() {
		var f model.FavoriteCoupon
		if err := rows.Scan(&f.ID, &f.CouponBookID, &f.CouponID, &f.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
