package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether the provided error references a unique
// violation. When constraintName is provided, the violated constraint (or the
// sqlite "table.column" pair) must contain it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	constraint, ok := UniqueViolationConstraint(err)
	if !ok {
		return false
	}
	if constraintName == "" {
		return true
	}
	return strings.Contains(constraint, constraintName)
}

// UniqueViolationConstraint extracts the violated constraint from postgres
// (pgx or lib/pq) and sqlite errors.
func UniqueViolationConstraint(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code != pgUniqueViolation {
			return "", false
		}
		return pgxErr.ConstraintName, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != pgUniqueViolation {
			return "", false
		}
		return pqErr.Constraint, true
	}

	msg := err.Error()
	if idx := strings.Index(msg, "UNIQUE constraint failed: "); idx >= 0 {
		return strings.TrimSpace(msg[idx+len("UNIQUE constraint failed: "):]), true
	}
	if strings.Contains(msg, "duplicate key value") {
		return msg, true
	}
	return "", false
}
