// Package repository defines the error taxonomy shared by all
// repositories.  Sentinel values let handlers distinguish failure
// classes without inspecting SQL errors, and every invariant violation
// produces a typed error returned to the caller.  Nothing here is
// logged-and-swallowed: an operation either succeeds or reports why it
// did not, so behaviour is identical whether the ledger is driven by
// the API, a script or a test.
package repository

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is the base class for uniqueness violations: duplicate
// coupon claims, double-favorited coupons, re-registered receipt
// tokens.  Handlers translate it into HTTP 409.  More specific
// sentinels below wrap ErrConflict so errors.Is(err, ErrConflict)
// holds for all of them.
var ErrConflict = errors.New("conflict")

// ErrValidation is returned when input fails a structural rule, such
// as a template created without reward info or a reward amount below
// one.  Handlers translate it into HTTP 400.
var ErrValidation = errors.New("validation failed")

// ErrDuplicateClaim is returned when a coupon book already holds a
// coupon for the requested template.  The first claim of a
// (couponbook, template) pair succeeds; every later claim fails with
// this error, which is the system's idempotency guarantee.
var ErrDuplicateClaim = fmt.Errorf("%w: coupon already claimed for template", ErrConflict)

// ErrAlreadyFavorite is returned when a coupon already has a favorite
// entry.  The bookmark relation is 1:1 with the coupon.
var ErrAlreadyFavorite = fmt.Errorf("%w: coupon already favorited", ErrConflict)

// ErrReceiptExists is returned by the registrar when a receipt token
// is registered twice.
var ErrReceiptExists = fmt.Errorf("%w: receipt token already registered", ErrConflict)

// RejectReason is a stable reason code attached to business-rule
// rejections.  Codes are part of the API contract and must not change.
type RejectReason string

const (
	// ReasonExpired – the template is switched off or past valid_until.
	ReasonExpired RejectReason = "expired"
	// ReasonSoldOut – the template's first-N capacity is exhausted.
	ReasonSoldOut RejectReason = "sold_out"
	// ReasonAlreadyCompleted – the coupon already holds the required
	// number of stamps.
	ReasonAlreadyCompleted RejectReason = "already_completed"
	// ReasonUnknownReceipt – the receipt token was never registered.
	ReasonUnknownReceipt RejectReason = "unknown_receipt"
	// ReasonReceiptUsed – a live stamp already references the receipt.
	ReasonReceiptUsed RejectReason = "receipt_already_used"
)

// Rejection is a business-rule rejection: the request was well formed
// and authorised but a ledger rule forbids it.  Handlers translate a
// Rejection into HTTP 422 with its reason code in the body.
type Rejection struct {
	Reason RejectReason
}

// Error implements the error interface.
func (r *Rejection) Error() string { return "rejected: " + string(r.Reason) }

// Reject returns a Rejection carrying the given reason code.
func Reject(reason RejectReason) error { return &Rejection{Reason: reason} }

// AsRejection unwraps err into a *Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
