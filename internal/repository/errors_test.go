package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestConflictSentinelsWrapErrConflict(t *testing.T) {
	for _, err := range []error{ErrDuplicateClaim, ErrAlreadyFavorite, ErrReceiptExists} {
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("%v must satisfy errors.Is(_, ErrConflict)", err)
		}
	}
	if errors.Is(ErrForbidden, ErrConflict) {
		t.Fatalf("ErrForbidden must not be a conflict")
	}
}

func TestRejectionReasonCodes(t *testing.T) {
	// Reason strings are part of the API contract.
	want := map[RejectReason]string{
		ReasonExpired:          "expired",
		ReasonSoldOut:          "sold_out",
		ReasonAlreadyCompleted: "already_completed",
		ReasonUnknownReceipt:   "unknown_receipt",
		ReasonReceiptUsed:      "receipt_already_used",
	}
	for reason, code := range want {
		if string(reason) != code {
			t.Fatalf("reason %q changed to %q", code, reason)
		}
	}
}

func TestAsRejection(t *testing.T) {
	err := Reject(ReasonSoldOut)
	rej, ok := AsRejection(err)
	if !ok || rej.Reason != ReasonSoldOut {
		t.Fatalf("AsRejection failed on a direct rejection: %v", err)
	}

	wrapped := fmt.Errorf("issuing coupon: %w", err)
	rej, ok = AsRejection(wrapped)
	if !ok || rej.Reason != ReasonSoldOut {
		t.Fatalf("AsRejection must unwrap, got %v", wrapped)
	}

	if _, ok := AsRejection(ErrDuplicateClaim); ok {
		t.Fatalf("a conflict is not a rejection")
	}
}

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	if !isDuplicateKey(dup) {
		t.Fatalf("error 1062 must be recognised as duplicate key")
	}
	if !isDuplicateKey(fmt.Errorf("insert: %w", dup)) {
		t.Fatalf("wrapped 1062 must be recognised")
	}
	other := &mysql.MySQLError{Number: 1213}
	if isDuplicateKey(other) || isDuplicateKey(errors.New("plain")) {
		t.Fatalf("non-1062 errors must not be duplicates")
	}
}

func TestIsMissingParent(t *testing.T) {
	fk := &mysql.MySQLError{Number: 1452, Message: "a foreign key constraint fails"}
	if !isMissingParent(fk) {
		t.Fatalf("error 1452 must be recognised as a missing parent row")
	}
	if !isMissingParent(fmt.Errorf("insert: %w", fk)) {
		t.Fatalf("wrapped 1452 must be recognised")
	}
	if isMissingParent(&mysql.MySQLError{Number: 1062}) || isMissingParent(errors.New("plain")) {
		t.Fatalf("other errors must not be missing-parent violations")
	}
}
