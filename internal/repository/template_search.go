package repository

import (
	"context"
	"database/sql"
)

// TemplateFilter narrows the active-template listing.  The active
// predicate itself is not optional; filters only restrict further.
//
//  PlaceID          – only templates of one place (0 = all places).
//  ExcludeBookID    – drop templates the given coupon book has already
//                     claimed (0 = no exclusion).  Used by the curation
//                     candidate list so the recommender never sees a
//                     template the customer already owns.
type TemplateFilter struct {
	PlaceID       uint64
	ExcludeBookID uint64
}

// ActiveTemplate is one row of the active-template listing: the
// template, its reward rule and a live issued count for capacity
// projection.
type ActiveTemplate struct {
	TemplateRecord
	Issued uint32
}

// ListActive returns all templates satisfying the shared active
// predicate, optionally narrowed by filter.  The issued count is a
// subquery over the coupons table, evaluated in the same statement, so
// listings show the same capacity the issuance path enforces.
func (r *TemplateRepo) ListActive(ctx context.Context, filter TemplateFilter) ([]ActiveTemplate, error) {
	q := `SELECT t.id, t.place_id, t.valid_until, t.first_n_persons, t.image_url, t.is_on, t.created_at,
	             COALESCE(ri.amount, 0), COALESCE(ri.reward, ''),
	             (SELECT COUNT(*) FROM coupons c WHERE c.template_id = t.id)
	      FROM coupon_templates t
	      LEFT JOIN reward_infos ri ON ri.template_id = t.id
	      WHERE ` + ActiveTemplateExpr("t")
	args := []interface{}{}
	if filter.PlaceID != 0 {
		q += ` AND t.place_id = ?`
		args = append(args, filter.PlaceID)
	}
	if filter.ExcludeBookID != 0 {
		q += ` AND NOT EXISTS(SELECT 1 FROM coupons c2 WHERE c2.template_id = t.id AND c2.couponbook_id = ?)`
		args = append(args, filter.ExcludeBookID)
	}
	q += ` ORDER BY t.created_at DESC, t.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ActiveTemplate, 0)
	for rows.Next() {
		var at ActiveTemplate
		var validUntil sql.NullTime
		if err := rows.Scan(
			&at.ID, &at.PlaceID, &validUntil, &at.FirstNPersons, &at.ImageURL, &at.IsOn, &at.CreatedAt,
			&at.RewardAmount, &at.Reward, &at.Issued,
		); err != nil {
			return nil, err
		}
		if validUntil.Valid {
			vu := validUntil.Time
			at.ValidUntil = &vu
		}
		out = append(out, at)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
