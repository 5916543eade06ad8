package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestUniqueViolationConstraint(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		ok         bool
	}{
		{name: "nil", err: nil},
		{name: "pgx", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), constraint: "users_email_key", ok: true},
		{name: "pgx other code", err: &pgconn.PgError{Code: "23503", ConstraintName: "messages_session_id_fkey"}},
		{name: "pq", err: &pq.Error{Code: "23505", Constraint: "users_handle_key"}, constraint: "users_handle_key", ok: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: users.account"), constraint: "users.account", ok: true},
		{name: "unrelated", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			constraint, ok := UniqueViolationConstraint(tt.err)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v got %v", tt.ok, ok)
			}
			if constraint != tt.constraint {
				t.Fatalf("expected constraint %q got %q", tt.constraint, constraint)
			}
		})
	}
}

func TestIsUniqueViolationFiltersByConstraint(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	if !IsUniqueViolation(err, "") {
		t.Fatal("expected unique violation without filter")
	}
	if !IsUniqueViolation(err, "email") {
		t.Fatal("expected unique violation for email")
	}
	if IsUniqueViolation(err, "handle") {
		t.Fatal("did not expect handle match")
	}
}
