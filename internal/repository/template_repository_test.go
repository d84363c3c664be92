package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/loyalty-coupon-book/internal/model"
)

func TestRemainingCapacity(t *testing.T) {
	if got := RemainingCapacity(0, 500); got != nil {
		t.Fatalf("unlimited capacity must be nil, got %d", *got)
	}
	cases := []struct {
		firstN, issued, want uint32
	}{
		{100, 0, 100},
		{100, 40, 60},
		{100, 100, 0},
		// Historical overshoot floors at zero instead of going negative.
		{100, 120, 0},
	}
	for _, tc := range cases {
		got := RemainingCapacity(tc.firstN, tc.issued)
		if got == nil || *got != tc.want {
			t.Fatalf("firstN=%d issued=%d: want %d, got %v", tc.firstN, tc.issued, tc.want, got)
		}
	}
}

func TestActiveTemplateExpr(t *testing.T) {
	expr := ActiveTemplateExpr("t")
	want := "t.is_on = 1 AND (t.valid_until IS NULL OR t.valid_until >= UTC_TIMESTAMP())"
	if expr != want {
		t.Fatalf("predicate changed:\n got %s\nwant %s", expr, want)
	}
}

func TestCreateWithRewardRejectsMissingReward(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTemplateRepo(db)

	// Validation fails before any statement reaches the database.
	tpl := &model.CouponTemplate{PlaceID: 1}
	if err := repo.CreateWithReward(context.Background(), tpl, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("nil reward: want ErrValidation, got %v", err)
	}
	if err := repo.CreateWithReward(context.Background(), tpl, &model.RewardInfo{Amount: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero amount: want ErrValidation, got %v", err)
	}
	verify(t, mock)
}

func TestCreateWithRewardSingleTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTemplateRepo(db)
	createdAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO coupon_templates").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO reward_infos").WithArgs(uint64(5), uint32(10), "free americano").
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectQuery("SELECT created_at FROM coupon_templates").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))
	mock.ExpectCommit()

	tpl := &model.CouponTemplate{PlaceID: 2, FirstNPersons: 100, ImageURL: "https://img", IsOn: true}
	reward := &model.RewardInfo{Amount: 10, Reward: "free americano"}
	if err := repo.CreateWithReward(context.Background(), tpl, reward); err != nil {
		t.Fatalf("create: %v", err)
	}
	if tpl.ID != 5 || reward.TemplateID != 5 || reward.ID != 8 {
		t.Fatalf("ids not populated: tpl=%d reward=%+v", tpl.ID, reward)
	}
	verify(t, mock)
}

func TestSetOnMissingTemplate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTemplateRepo(db)

	mock.ExpectExec("UPDATE coupon_templates SET is_on").WithArgs(true, uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	if err := repo.SetOn(context.Background(), 404, true); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}
	verify(t, mock)
}

func TestSetOnNoChangeIsNotMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTemplateRepo(db)

	// Setting the flag to its current value affects zero rows but the
	// template exists, so the call succeeds.
	mock.ExpectExec("UPDATE coupon_templates SET is_on").WithArgs(false, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	if err := repo.SetOn(context.Background(), 5, false); err != nil {
		t.Fatalf("no-change SetOn: %v", err)
	}
	verify(t, mock)
}

func TestTemplateDeleteCascadeOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTemplateRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE s FROM stamps s").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE f FROM favorite_coupons f").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM coupons WHERE template_id").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM reward_infos WHERE template_id").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM coupon_templates WHERE id").WithArgs(uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteCascade(context.Background(), 5); err != nil {
		t.Fatalf("delete cascade: %v", err)
	}
	verify(t, mock)
}
