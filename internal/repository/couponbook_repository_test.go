package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestEnsureLedgerCreates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponBookRepo(db)

	mock.ExpectExec("INSERT INTO couponbooks").WithArgs(uint64(4)).
		WillReturnResult(sqlmock.NewResult(9, 1))

	id, err := repo.EnsureLedger(context.Background(), 4)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if id != 9 {
		t.Fatalf("want book id 9, got %d", id)
	}
	verify(t, mock)
}

func TestEnsureLedgerIdempotent(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponBookRepo(db)

	// The row already exists: the upsert reports no new id and the
	// existing book is looked up instead.
	mock.ExpectExec("INSERT INTO couponbooks").WithArgs(uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id FROM couponbooks").WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	id, err := repo.EnsureLedger(context.Background(), 4)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if id != 9 {
		t.Fatalf("want existing book id 9, got %d", id)
	}
	verify(t, mock)
}

func TestBookSummaryLiveCounts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponBookRepo(db)

	mock.ExpectQuery("SELECT b.id, b.user_id").WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "favorites", "coupons", "stamps"}).
			AddRow(9, 4, 2, 5, 17))

	s, err := repo.Summary(context.Background(), 4)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.FavoriteCounts != 2 || s.CouponCounts != 5 || s.StampCounts != 17 {
		t.Fatalf("unexpected summary %+v", s)
	}
	verify(t, mock)
}
