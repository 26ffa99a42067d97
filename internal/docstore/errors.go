package docstore

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const uniqueFailedPrefix = "UNIQUE constraint failed: "

// uniqueViolation reports whether err is a SQLite uniqueness failure on table
// and, if so, which record field collided: "id" for the primary key, the
// index name for a unique secondary index.
//
// SQLite names the offending column in the message, e.g.
// "UNIQUE constraint failed: users.ix_email".
func uniqueViolation(err error, table string) (string, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return "", false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT:
	default:
		return "", false
	}

	msg := se.Error()
	i := strings.Index(msg, uniqueFailedPrefix)
	if i < 0 {
		return "", false
	}
	col := msg[i+len(uniqueFailedPrefix):]
	if j := strings.IndexAny(col, " ,)"); j >= 0 {
		col = col[:j]
	}
	col = strings.TrimPrefix(col, table+".")

	if name, ok := strings.CutPrefix(col, "ix_"); ok {
		return name, true
	}
	return col, true
}
