package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDupEntry is the MySQL error number for a unique-key violation.
// The coupon, stamp and favorite tables each carry a unique key that
// turns a concurrent check-then-insert race into an atomic
// insert-or-reject, so repositories map this error number to their
// domain-specific conflict.
const mysqlDupEntry = 1062

// isDuplicateKey reports whether err is a unique-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDupEntry
}

// mysqlNoParentRow is the MySQL error number for an insert whose foreign
// key points at a row that no longer exists.  It surfaces when a child
// insert races the cascade delete of its parent; repositories map it to
// sql.ErrNoRows because from the caller's view the parent is gone.
const mysqlNoParentRow = 1452

// isMissingParent reports whether err is a foreign-key violation.
func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlNoParentRow
}
