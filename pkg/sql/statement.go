package sql

import (
	"errors"
	"strings"
)

// ErrMultipleStatements indicates the query text holds more than one statement.
// Adapters wrap queries in a row-limiting subquery, which only works for one.
var ErrMultipleStatements = errors.New("multiple SQL statements not allowed")

// NormalizeStatement trims whitespace and a single trailing semicolon, then
// rejects text that still contains a statement separator.
//
//	NormalizeStatement("SELECT 1;\n")           // "SELECT 1", nil
//	NormalizeStatement("SELECT 1; DROP t")      // "", ErrMultipleStatements
//	NormalizeStatement("SELECT ';' AS sep;")    // "SELECT ';' AS sep", nil
func NormalizeStatement(sqlQuery string) (string, error) {
	stmt := strings.TrimSpace(sqlQuery)
	if trimmed, ok := strings.CutSuffix(stmt, ";"); ok {
		stmt = strings.TrimSpace(trimmed)
	}
	if hasSeparator(stmt) {
		return "", ErrMultipleStatements
	}
	return stmt, nil
}

// hasSeparator reports whether a semicolon appears outside quoted strings,
// quoted identifiers and comments.
func hasSeparator(stmt string) bool {
	const (
		plain = iota
		single
		double
		lineComment
		blockComment
	)

	state := plain
	for i := 0; i < len(stmt); i++ {
		ch := stmt[i]
		switch state {
		case plain:
			switch {
			case ch == ';':
				return true
			case ch == '\'':
				state = single
			case ch == '"':
				state = double
			case ch == '-' && i+1 < len(stmt) && stmt[i+1] == '-':
				state = lineComment
				i++
			case ch == '/' && i+1 < len(stmt) && stmt[i+1] == '*':
				state = blockComment
				i++
			}
		case single:
			// '' stays inside the literal: exit then re-enter.
			if ch == '\'' {
				state = plain
			}
		case double:
			if ch == '"' {
				state = plain
			}
		case lineComment:
			if ch == '\n' {
				state = plain
			}
		case blockComment:
			if ch == '*' && i+1 < len(stmt) && stmt[i+1] == '/' {
				state = plain
				i++
			}
		}
	}
	return false
}
