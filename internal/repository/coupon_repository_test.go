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

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func verify(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIssueSuccess(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)
	savedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.first_n_persons").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"first_n_persons", "active"}).AddRow(3, true))
	mock.ExpectQuery("FROM coupons WHERE template_id").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("FROM coupons WHERE couponbook_id").WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO coupons").WithArgs(uint64(9), uint64(5)).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery("SELECT saved_at FROM coupons").WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"saved_at"}).AddRow(savedAt))
	mock.ExpectCommit()

	coupon, err := repo.Issue(context.Background(), 9, 5)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if coupon.ID != 77 || coupon.CouponBookID != 9 || coupon.TemplateID != 5 {
		t.Fatalf("unexpected coupon %+v", coupon)
	}
	if !coupon.SavedAt.Equal(savedAt) {
		t.Fatalf("saved_at not read back: %v", coupon.SavedAt)
	}
	verify(t, mock)
}

func TestIssueInactiveTemplate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.first_n_persons").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"first_n_persons", "active"}).AddRow(0, false))
	mock.ExpectRollback()

	_, err := repo.Issue(context.Background(), 9, 5)
	rej, ok := AsRejection(err)
	if !ok || rej.Reason != ReasonExpired {
		t.Fatalf("want rejection(expired), got %v", err)
	}
	verify(t, mock)
}

func TestIssueSoldOut(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.first_n_persons").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"first_n_persons", "active"}).AddRow(3, true))
	mock.ExpectQuery("FROM coupons WHERE template_id").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, err := repo.Issue(context.Background(), 9, 5)
	rej, ok := AsRejection(err)
	if !ok || rej.Reason != ReasonSoldOut {
		t.Fatalf("want rejection(sold_out), got %v", err)
	}
	verify(t, mock)
}

func TestIssueUnlimitedSkipsCapacityCheck(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	// first_n_persons = 0 means unlimited; no count query is issued.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.first_n_persons").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"first_n_persons", "active"}).AddRow(0, true))
	mock.ExpectQuery("FROM coupons WHERE couponbook_id").WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO coupons").WithArgs(uint64(9), uint64(5)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT saved_at FROM coupons").WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"saved_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()

	if _, err := repo.Issue(context.Background(), 9, 5); err != nil {
		t.Fatalf("issue: %v", err)
	}
	verify(t, mock)
}

func TestIssueDuplicateClaim(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.first_n_persons").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"first_n_persons", "active"}).AddRow(0, true))
	mock.ExpectQuery("FROM coupons WHERE couponbook_id").WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Issue(context.Background(), 9, 5)
	if !errors.Is(err, ErrDuplicateClaim) {
		t.Fatalf("want ErrDuplicateClaim, got %v", err)
	}
	verify(t, mock)
}

func TestIssueDuplicateKeyBackstop(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	// A racing claim that slipped past the existence check surfaces
	// through the unique key, never as a second coupon.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.first_n_persons").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"first_n_persons", "active"}).AddRow(0, true))
	mock.ExpectQuery("FROM coupons WHERE couponbook_id").WithArgs(uint64(9), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO coupons").WithArgs(uint64(9), uint64(5)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Issue(context.Background(), 9, 5)
	if !errors.Is(err, ErrDuplicateClaim) {
		t.Fatalf("want ErrDuplicateClaim, got %v", err)
	}
	verify(t, mock)
}

func TestIssueUnknownTemplate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT t.first_n_persons").WithArgs(uint64(404)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Issue(context.Background(), 9, 404)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}
	verify(t, mock)
}

func TestDeleteCascadeOwnershipAndOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.user_id").WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(4))
	mock.ExpectExec("DELETE FROM stamps WHERE coupon_id").WithArgs(uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM favorite_coupons WHERE coupon_id").WithArgs(uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM coupons WHERE id").WithArgs(uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.DeleteCascade(context.Background(), 77, 4); err != nil {
		t.Fatalf("delete cascade: %v", err)
	}
	verify(t, mock)
}

func TestDeleteCascadeForbidden(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCouponRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.user_id").WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(4))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), 77, 99)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	verify(t, mock)
}
