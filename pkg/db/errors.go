package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. Matches both the Postgres and SQLite message shapes so
// tests running on SQLite see the same behavior.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
