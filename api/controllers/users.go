package controllers

import (
	"net/http"

	"github.com/zatgpt/zatgpt-backend/api/responses"
	"github.com/zatgpt/zatgpt-backend/internal/authz"
	"github.com/zatgpt/zatgpt-backend/internal/users"
	"github.com/zatgpt/zatgpt-backend/pkg/logger"
)

// UserProfile returns the caller's handle and email.
func UserProfile(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err == nil {
			err = authz.Require(caller, authz.ActionViewProfile)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, users.ProfileDTO{Handle: caller.Handle, Email: caller.Email})
	}
}
