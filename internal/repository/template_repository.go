package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/loyalty-coupon-book/internal/model"
)

// ActiveTemplateExpr is the single authority for "this campaign can be
// listed and issued from": the template is switched on and either never
// expires or has not yet expired.  Every component (listing, issuance,
// accrual, curation candidates) embeds this expression instead of
// restating the rule, so what is listed and what is issuable can never
// diverge.  The alias must name the coupon_templates table in the
// surrounding query.
func ActiveTemplateExpr(alias string) string {
	return alias + ".is_on = 1 AND (" + alias + ".valid_until IS NULL OR " + alias + ".valid_until >= UTC_TIMESTAMP())"
}

// TemplateRepo provides data access to coupon_templates and their
// reward_infos rows.  Capacity figures are always computed from live
// coupon counts, never from stored counters, so they cannot drift from
// the issuance write path.
type TemplateRepo struct {
	db *sql.DB
}

// NewTemplateRepo returns a new TemplateRepo bound to the given database.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *TemplateRepo) DB() *sql.DB { return r.db }

// TemplateRecord mirrors a coupon_templates row joined with its
// optional reward info.  RewardAmount is 0 and Reward empty when no
// reward_infos row exists; read paths must tolerate that.
type TemplateRecord struct {
	ID            uint64
	PlaceID       uint64
	ValidUntil    *time.Time
	FirstNPersons uint32
	ImageURL      string
	IsOn          bool
	CreatedAt     time.Time
	RewardAmount  uint32
	Reward        string
}

// CreateWithReward inserts a template together with its reward info in
// one transaction.  A template without reward info cannot be stamped,
// so creating one is rejected up front: a nil reward or an amount below
// one returns ErrValidation and nothing is written.
func (r *TemplateRepo) CreateWithReward(ctx context.Context, t *model.CouponTemplate, reward *model.RewardInfo) error {
	if reward == nil || reward.Amount < 1 {
		return ErrValidation
	}
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
	var validUntil interface{}
	if t.ValidUntil != nil {
		validUntil = t.ValidUntil.UTC().Format("2006-01-02 15:04:05")
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO coupon_templates (place_id, valid_until, first_n_persons, image_url, is_on) VALUES (?, ?, ?, ?, ?)`,
		t.PlaceID, validUntil, t.FirstNPersons, t.ImageURL, t.IsOn,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	res, err = tx.ExecContext(ctx,
		`INSERT INTO reward_infos (template_id, amount, reward) VALUES (?, ?, ?)`,
		t.ID, reward.Amount, reward.Reward,
	)
	if err != nil {
		return err
	}
	rid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reward.ID = uint64(rid)
	reward.TemplateID = t.ID
	if err := tx.QueryRowContext(ctx,
		`SELECT created_at FROM coupon_templates WHERE id = ?`, t.ID,
	).Scan(&t.CreatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID loads a template and its reward info.  sql.ErrNoRows is
// returned when the template does not exist; a missing reward row is
// not an error and leaves RewardAmount at 0.
func (r *TemplateRepo) GetByID(ctx context.Context, templateID uint64) (*TemplateRecord, error) {
	const q = `SELECT t.id, t.place_id, t.valid_until, t.first_n_persons, t.image_url, t.is_on, t.created_at,
	                  COALESCE(ri.amount, 0), COALESCE(ri.reward, '')
	           FROM coupon_templates t
	           LEFT JOIN reward_infos ri ON ri.template_id = t.id
	           WHERE t.id = ?`
	var rec TemplateRecord
	var validUntil sql.NullTime
	err := r.db.QueryRowContext(ctx, q, templateID).Scan(
		&rec.ID, &rec.PlaceID, &validUntil, &rec.FirstNPersons, &rec.ImageURL, &rec.IsOn, &rec.CreatedAt,
		&rec.RewardAmount, &rec.Reward,
	)
	if err != nil {
		return nil, err
	}
	if validUntil.Valid {
		vu := validUntil.Time
		rec.ValidUntil = &vu
	}
	return &rec, nil
}

// IssuedCount returns the live number of coupons referencing the
// template.  It is never cached or stored; the count is recomputed on
// every call so it cannot desynchronise from the coupons table.
func (r *TemplateRepo) IssuedCount(ctx context.Context, templateID uint64) (uint32, error) {
	var n uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coupons WHERE template_id = ?`, templateID,
	).Scan(&n)
	return n, err
}

// UsedStampCount returns the total number of stamps accrued across all
// coupons issued from the template.  Used by the owner statistics view.
func (r *TemplateRepo) UsedStampCount(ctx context.Context, templateID uint64) (uint32, error) {
	var n uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stamps s JOIN coupons c ON c.id = s.coupon_id WHERE c.template_id = ?`,
		templateID,
	).Scan(&n)
	return n, err
}

// SavedCount returns the number of favorite entries across all coupons
// issued from the template.  Used by the owner statistics view.
func (r *TemplateRepo) SavedCount(ctx context.Context, templateID uint64) (uint32, error) {
	var n uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorite_coupons f JOIN coupons c ON c.id = f.coupon_id WHERE c.template_id = ?`,
		templateID,
	).Scan(&n)
	return n, err
}

// RemainingCapacity converts a live issued count into the number of
// coupons the template may still issue.  A FirstNPersons of 0 means
// unlimited, reported as nil.  The subtraction is floored at zero so an
// historical overshoot can never surface as a negative remainder.
func RemainingCapacity(firstNPersons, issued uint32) *uint32 {
	if firstNPersons == 0 {
		return nil
	}
	var remaining uint32
	if issued < firstNPersons {
		remaining = firstNPersons - issued
	}
	return &remaining
}

// SetOn toggles the publication flag.  sql.ErrNoRows is returned when
// the template does not exist.
func (r *TemplateRepo) SetOn(ctx context.Context, templateID uint64, on bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE coupon_templates SET is_on = ? WHERE id = ?`, on, templateID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "already in that state".
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM coupon_templates WHERE id = ?)`, templateID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}
	}
	return nil
}

// OwnerID returns the merchant user owning the template's place, for
// authorisation checks.  sql.ErrNoRows when the template is missing.
func (r *TemplateRepo) OwnerID(ctx context.Context, templateID uint64) (uint64, error) {
	const q = `SELECT p.owner_id
	           FROM coupon_templates t
	           JOIN places p ON p.id = t.place_id
	           WHERE t.id = ?`
	var ownerID uint64
	err := r.db.QueryRowContext(ctx, q, templateID).Scan(&ownerID)
	return ownerID, err
}

// DeleteCascade removes a template and everything issued from it:
// stamps on its coupons, favorite entries wrapping those coupons, the
// coupons themselves, the reward info and finally the template.  The
// whole cascade runs in one transaction; a partially applied cascade is
// never observable.
func (r *TemplateRepo) DeleteCascade(ctx context.Context, templateID uint64) error {
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
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM coupon_templates WHERE id = ?)`, templateID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return sql.ErrNoRows
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE s FROM stamps s JOIN coupons c ON c.id = s.coupon_id WHERE c.template_id = ?`, templateID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE f FROM favorite_coupons f JOIN coupons c ON c.id = f.coupon_id WHERE c.template_id = ?`, templateID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM coupons WHERE template_id = ?`, templateID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reward_infos WHERE template_id = ?`, templateID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM coupon_templates WHERE id = ?`, templateID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
