package projection

import (
	"testing"
	"time"
)

func TestEvaluateCompletion(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	st := Evaluate(nil, 10, 9, now)
	if st.IsCompleted {
		t.Fatalf("9 of 10 stamps must not be completed")
	}
	st = Evaluate(nil, 10, 10, now)
	if !st.IsCompleted {
		t.Fatalf("10 of 10 stamps must be completed")
	}
	// Administrative stamp deletion can push the count above the target;
	// the coupon stays completed.
	st = Evaluate(nil, 10, 11, now)
	if !st.IsCompleted {
		t.Fatalf("count above target must still report completed")
	}
}

func TestEvaluateNoRewardInfo(t *testing.T) {
	now := time.Now().UTC()
	st := Evaluate(nil, 0, 5, now)
	if st.IsCompleted {
		t.Fatalf("a coupon without a reward rule can never complete")
	}
	if st.RequiredStamps != 0 || st.CurrentStamps != 5 {
		t.Fatalf("counts must pass through unchanged, got %d/%d", st.CurrentStamps, st.RequiredStamps)
	}
}

func TestEvaluateExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Hour)
	st := Evaluate(&past, 10, 3, now)
	if !st.IsExpired {
		t.Fatalf("valid_until in the past must be expired")
	}

	future := now.Add(time.Hour)
	st = Evaluate(&future, 10, 3, now)
	if st.IsExpired {
		t.Fatalf("valid_until in the future must not be expired")
	}

	// Completed and expired are independent flags.
	st = Evaluate(&past, 3, 3, now)
	if !st.IsCompleted || !st.IsExpired {
		t.Fatalf("a finished coupon on an expired campaign is both completed and expired")
	}
}

func TestEvaluateDaysRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	st := Evaluate(nil, 10, 0, now)
	if st.DaysRemaining != nil {
		t.Fatalf("no expiry must report nil days remaining")
	}

	cases := []struct {
		until time.Time
		want  int
	}{
		{now.Add(10 * 24 * time.Hour), 10},
		// Partial days floor.
		{now.Add(36 * time.Hour), 1},
		{now.Add(12 * time.Hour), 0},
		// Past expiry the floor keeps counting down: even one second
		// over the line is already a day in the red.
		{now.Add(-time.Second), -1},
		{now.Add(-36 * time.Hour), -2},
		{now.Add(-10 * 24 * time.Hour), -10},
	}
	for _, tc := range cases {
		st := Evaluate(&tc.until, 10, 0, now)
		if st.DaysRemaining == nil || *st.DaysRemaining != tc.want {
			t.Fatalf("until=%s: want %d days, got %v", tc.until, tc.want, st.DaysRemaining)
		}
	}
}
