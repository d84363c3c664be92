package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestFavoriteAdd(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)
	addedAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT couponbook_id FROM coupons").WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"couponbook_id"}).AddRow(9))
	mock.ExpectExec("INSERT INTO favorite_coupons").WithArgs(uint64(9), uint64(77)).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery("SELECT added_at FROM favorite_coupons").WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"added_at"}).AddRow(addedAt))
	mock.ExpectCommit()

	fav, err := repo.Add(context.Background(), 9, 77)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if fav.ID != 12 || fav.CouponID != 77 || !fav.AddedAt.Equal(addedAt) {
		t.Fatalf("unexpected favorite %+v", fav)
	}
	verify(t, mock)
}

func TestFavoriteAddForeignCoupon(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	// The coupon belongs to another book; nothing is inserted.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT couponbook_id FROM coupons").WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"couponbook_id"}).AddRow(42))
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), 9, 77)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	verify(t, mock)
}

func TestFavoriteAddTwice(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT couponbook_id FROM coupons").WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"couponbook_id"}).AddRow(9))
	mock.ExpectExec("INSERT INTO favorite_coupons").WithArgs(uint64(9), uint64(77)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), 9, 77)
	if !errors.Is(err, ErrAlreadyFavorite) {
		t.Fatalf("want ErrAlreadyFavorite, got %v", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("ErrAlreadyFavorite must also be a conflict")
	}
	verify(t, mock)
}

func TestFavoriteAddRacesCouponDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	// The coupon passes the ownership check but a cascade delete wins
	// the race before the insert; the foreign key fires and the caller
	// sees a plain not-found, never the raw SQL error.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT couponbook_id FROM coupons").WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"couponbook_id"}).AddRow(9))
	mock.ExpectExec("INSERT INTO favorite_coupons").WithArgs(uint64(9), uint64(77)).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "a foreign key constraint fails"})
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), 9, 77)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}
	verify(t, mock)
}

func TestFavoriteRemoveForbidden(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectQuery("SELECT b.user_id").WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(4))

	if err := repo.Remove(context.Background(), 12, 99); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	verify(t, mock)
}
