package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

func TestReceiptRegisterMintsToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReceiptRepo(db)

	mock.ExpectExec("INSERT INTO receipts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT created_at FROM receipts").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))

	rec, err := repo.Register(context.Background(), "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := uuid.Parse(rec.Token); err != nil {
		t.Fatalf("minted token %q is not a UUID: %v", rec.Token, err)
	}
	verify(t, mock)
}

func TestReceiptRegisterKeepsCallerToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReceiptRepo(db)

	mock.ExpectExec("INSERT INTO receipts").WithArgs("pos-000123").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT created_at FROM receipts").WithArgs("pos-000123").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))

	rec, err := repo.Register(context.Background(), "pos-000123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Token != "pos-000123" {
		t.Fatalf("token rewritten to %q", rec.Token)
	}
	verify(t, mock)
}

func TestReceiptRegisterDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReceiptRepo(db)

	mock.ExpectExec("INSERT INTO receipts").WithArgs("pos-000123").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Register(context.Background(), "pos-000123")
	if !errors.Is(err, ErrReceiptExists) {
		t.Fatalf("want ErrReceiptExists, got %v", err)
	}
	verify(t, mock)
}
