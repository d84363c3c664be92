package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/loyalty-coupon-book/internal/model"
)

// PlaceRepo provides data access to the places table.  Places are the
// opaque campaign-metadata anchor for templates; the ledger only needs
// them for merchant authorisation and event payloads.
type PlaceRepo struct {
	db *sql.DB
}

// NewPlaceRepo returns a new PlaceRepo bound to the given database.
func NewPlaceRepo(db *sql.DB) *PlaceRepo { return &PlaceRepo{db: db} }

// Create inserts a place for a merchant and populates the generated ID.
func (r *PlaceRepo) Create(ctx context.Context, p *model.Place) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO places (owner_id, name, image_url) VALUES (?, ?, ?)`,
		p.OwnerID, p.Name, p.ImageURL,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at FROM places WHERE id = ?`, p.ID,
	).Scan(&p.CreatedAt)
}

// GetByID loads a place.  sql.ErrNoRows when it does not exist.
func (r *PlaceRepo) GetByID(ctx context.Context, placeID uint64) (*model.Place, error) {
	var p model.Place
	err := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, image_url, created_at FROM places WHERE id = ?`, placeID,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOwner returns all places of a merchant.
func (r *PlaceRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Place, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, image_url, created_at FROM places WHERE owner_id = ? ORDER BY id`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Place, 0)
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
