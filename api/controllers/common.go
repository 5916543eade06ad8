package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/internal/authz"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
)

func callerFrom(r *http.Request) (authz.Caller, error) {
	caller, ok := authz.CallerFromContext(r.Context())
	if !ok {
		return authz.Caller{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return caller, nil
}

// parseSessionID reads a session identifier. Malformed ids are reported the
// same way as sessions the caller does not own.
func parseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return id, nil
}

func sessionIDParam(r *http.Request) (uuid.UUID, error) {
	return parseSessionID(chi.URLParam(r, "sessionId"))
}
