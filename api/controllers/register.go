package controllers

import (
	"net/http"

	"github.com/zatgpt/zatgpt-backend/api/responses"
	"github.com/zatgpt/zatgpt-backend/api/validators"
	"github.com/zatgpt/zatgpt-backend/internal/auth"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
	"github.com/zatgpt/zatgpt-backend/pkg/logger"
)

// AuthRegister creates a regular account. The response never carries the
// credential.
func AuthRegister(reg auth.RegisterService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reg == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := reg.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}
