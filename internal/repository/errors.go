// Package repository holds the MySQL data access layer.  The sentinel
// errors below let the service layer tell failure scenarios apart without
// looking at driver errors: ErrNotFound for missing rows, ErrConflict for
// unique key violations and illegal state transitions, and
// ErrCapacityExceeded when a conditional seat update matched no row.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write violates a unique key or the row is
// not in the state the update expects.
var ErrConflict = errors.New("conflict")

// ErrCapacityExceeded is returned by Reserve when the slot exists but the
// requested seats no longer fit.
var ErrCapacityExceeded = errors.New("capacity exceeded")

const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL duplicate key error.  When key
// is non-empty the violated index name must also match.
func isDuplicate(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}
