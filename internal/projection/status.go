// Package projection computes the derived state of a coupon.  It is a
// stateless read-side shared by every write path and API response, so
// "can this coupon accrue" and "is this coupon complete" are answered
// by exactly one piece of code and cannot drift apart.
package projection

import (
	"math"
	"time"
)

// CouponStatus is the derived state of one coupon at a moment in time.
// Completed and Expired are not mutually exclusive: a coupon that
// finished its stamps before the campaign expired is both.  Completion
// is one-way under normal operation; only stamp deletion (an
// administrative action) can lower the count again.
type CouponStatus struct {
	CurrentStamps  uint32
	RequiredStamps uint32
	IsCompleted    bool
	IsExpired      bool
	DaysRemaining  *int
}

// Evaluate derives a coupon's status from its template expiry, reward
// amount and live stamp count.  A rewardAmount of 0 means the template
// has no reward info; such a coupon is never considered complete and
// the caller's write path refuses to stamp it.  A nil validUntil means
// the campaign never expires and DaysRemaining is nil.
func Evaluate(validUntil *time.Time, rewardAmount, stampCount uint32, now time.Time) CouponStatus {
	st := CouponStatus{
		CurrentStamps:  stampCount,
		RequiredStamps: rewardAmount,
		IsCompleted:    rewardAmount > 0 && stampCount >= rewardAmount,
	}
	if validUntil != nil {
		st.IsExpired = validUntil.Before(now)
		// Floored, not truncated: an expired campaign reports negative
		// days, and any fraction past a boundary counts as the next day
		// down (1s past expiry is -1, not 0).
		days := int(math.Floor(validUntil.Sub(now).Hours() / 24))
		st.DaysRemaining = &days
	}
	return st
}
