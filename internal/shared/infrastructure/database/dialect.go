package database

import (
	"strconv"
	"strings"
)

// Rebind rewrites ? placeholders into the positional form the driver expects.
// Queries are written once with ? and rebound for PostgreSQL ($1, $2, ...).
// Placeholders inside quoted literals are not supported.
func Rebind(driver Driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// LockClause returns the row-locking suffix for reads that precede a write in
// the same transaction. SQLite serializes writers on its single connection
// and has no row locks.
func LockClause(driver Driver) string {
	if driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}
