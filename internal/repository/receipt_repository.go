package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/loyalty-coupon-book/internal/model"
)

// ReceiptRepo is the registrar surface for proof-of-purchase tokens.
// Merchant tooling registers a receipt before a customer can accrue a
// stamp with it; unknown tokens are rejected at accrual time rather
// than auto-created, so merchant-side registration failures stay
// visible.
type ReceiptRepo struct {
	db *sql.DB
}

// NewReceiptRepo returns a new ReceiptRepo bound to the given database.
func NewReceiptRepo(db *sql.DB) *ReceiptRepo { return &ReceiptRepo{db: db} }

// Register stores a new receipt token.  When token is empty a random
// UUID is generated, which is the normal path for POS integrations that
// let the service mint the token.  Registering an existing token
// returns ErrReceiptExists.
func (r *ReceiptRepo) Register(ctx context.Context, token string) (*model.Receipt, error) {
	if token == "" {
		token = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO receipts (token) VALUES (?)`, token,
	); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrReceiptExists
		}
		return nil, err
	}
	rec := &model.Receipt{Token: token}
	if err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM receipts WHERE token = ?`, token,
	).Scan(&rec.CreatedAt); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByToken loads a receipt.  sql.ErrNoRows when the token was never
// registered.
func (r *ReceiptRepo) GetByToken(ctx context.Context, token string) (*model.Receipt, error) {
	var rec model.Receipt
	err := r.db.QueryRowContext(ctx,
		`SELECT token, created_at FROM receipts WHERE token = ?`, token,
	).Scan(&rec.Token, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// IsBound reports whether a live stamp currently references the token.
func (r *ReceiptRepo) IsBound(ctx context.Context, token string) (bool, error) {
	var bound bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM stamps WHERE receipt_token = ?)`, token,
	).Scan(&bound)
	return bound, err
}
