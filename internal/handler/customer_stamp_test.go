package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/loyalty-coupon-book/internal/repository"
)

func newCustomerMock(t *testing.T) (*CustomerHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	h := NewCustomerHandler(
		repository.NewCouponBookRepo(db),
		repository.NewCouponRepo(db),
		repository.NewStampRepo(db),
		repository.NewFavoriteRepo(db),
		repository.NewTemplateRepo(db),
		nil,
	)
	return h, mock
}

func accrueContext(e *echo.Echo, couponID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"receipt_token":"r-1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/coupons/:id/stamps")
	c.SetParamNames("id")
	c.SetParamValues(couponID)
	c.Set("user_id", uint64(4))
	return c, rec
}

func TestAccrueStampLogsSkippedEvent(t *testing.T) {
	h, mock := newCustomerMock(t)

	// The accrual completes the coupon but the detail load for the event
	// payload fails.  The stamp is already committed, so the response
	// must still be 201 and the skipped publish must leave a log trace.
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.user_id, c.template_id").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "template_id"}).AddRow(4, 2))
	mock.ExpectQuery("SELECT amount FROM reward_infos").WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"amount"}).AddRow(3))
	mock.ExpectQuery("FROM stamps WHERE coupon_id").WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("FROM coupon_templates t WHERE t.id").WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(true))
	mock.ExpectQuery("FROM receipts WHERE token").WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"registered"}).AddRow(true))
	mock.ExpectExec("INSERT INTO stamps").WithArgs(uint64(5), "r-1", uint64(4)).
		WillReturnResult(sqlmock.NewResult(31, 1))
	mock.ExpectQuery("SELECT created_at FROM stamps").WithArgs(uint64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT b.user_id, c.id").WithArgs(uint64(5)).
		WillReturnError(sql.ErrConnDone)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	c, rec := accrueContext(echo.New(), "5")
	if err := h.AccrueStamp(c); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["is_completed"] != true {
		t.Fatalf("is_completed = %v, want true", body["is_completed"])
	}
	if !strings.Contains(buf.String(), "event skipped") {
		t.Fatalf("skipped publish left no log line, got %q", buf.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
