package database

import (
	"strconv"
	"strings"
)

// Dialect captures the placeholder syntax of a SQL driver.
type Dialect string

const (
	// Postgres uses numbered placeholders ($1, $2, ...).
	Postgres Dialect = "postgres"
	// MySQL uses positional placeholders (?).
	MySQL Dialect = "mysql"
)

// DialectFor maps a driver name to its Dialect. Unknown drivers default to Postgres.
func DialectFor(driver string) Dialect {
	if driver == "mysql" {
		return MySQL
	}
	return Postgres
}

// ValuesClause returns the VALUES tuples for a multi-row insert of rows rows with
// cols columns each, e.g. "($1, $2), ($3, $4)" for Postgres.
func (d Dialect) ValuesClause(rows, cols int) string {
	var sb strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			if d == MySQL {
				sb.WriteByte('?')
			} else {
				sb.WriteByte('$')
				sb.WriteString(strconv.Itoa(n))
			}
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// Placeholder returns the placeholder for the n-th (1-based) bound argument.
func (d Dialect) Placeholder(n int) string {
	if d == MySQL {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// AsText renders column so it compares against text arguments. Postgres rejects a
// malformed UUID argument outright, which would fail the whole statement.
func (d Dialect) AsText(column string) string {
	if d == MySQL {
		return column
	}
	return column + "::text"
}
