package dbutil

import (
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Finalize rebinds gendry's mysql-style placeholders to postgres $n.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	return sqlx.Rebind(sqlx.DOLLAR, query), args
}

func IsConflict(err error) bool {
	if pgErr, ok := err.(*pq.Error); ok {
		return pgErr.Code == "23505"
	}
	return false
}

// IsConnectionError reports whether err is a connection-class postgres
// failure (SQLSTATE class 08). Driver-level dial errors do not carry a
// pq code and are classified separately by the caller.
func IsConnectionError(err error) bool {
	if pgErr, ok := err.(*pq.Error); ok {
		return pgErr.Code.Class() == "08"
	}
	return false
}
