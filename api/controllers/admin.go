package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/api/responses"
	"github.com/zatgpt/zatgpt-backend/api/validators"
	"github.com/zatgpt/zatgpt-backend/internal/auth"
	"github.com/zatgpt/zatgpt-backend/internal/users"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
	"github.com/zatgpt/zatgpt-backend/pkg/logger"
)

const permissionTargetKey = "uuid"

// AdminCreateUser creates an admin or superadmin account on behalf of a
// super-admin caller.
func AdminCreateUser(svc auth.AdminRegisterService, tier enums.AdminTier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin register service unavailable"))
			return
		}

		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.CreatePrivilegedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.CreatePrivileged(r.Context(), caller, tier, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// AdminPermissionCheck reports the caller's administrative tier.
func AdminPermissionCheck(svc auth.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckAdmin(caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AdminListUsers lists every account.
func AdminListUsers(svc auth.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListUsers(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminUpdatePermissions applies the supplied role flags to the user named by
// "uuid". Only the keys present in the body are changed.
func AdminUpdatePermissions(svc auth.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw, err := validators.DecodeJSONObject(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := parsePermissionsRequest(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdatePermissions(r.Context(), caller, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, user)
	}
}

func parsePermissionsRequest(raw map[string]json.RawMessage) (auth.UpdatePermissionsRequest, error) {
	var req auth.UpdatePermissionsRequest

	target, ok := raw[permissionTargetKey]
	if !ok {
		return req, fieldError(permissionTargetKey, "is required")
	}
	var identity string
	if err := json.Unmarshal(target, &identity); err != nil {
		return req, fieldError(permissionTargetKey, "must be a string")
	}
	parsed, err := uuid.Parse(strings.TrimSpace(identity))
	if err != nil {
		return req, fieldError(permissionTargetKey, "must be a valid uuid")
	}
	req.Identity = parsed

	req.Changes = users.PermissionChanges{}
	for key, value := range raw {
		if key == permissionTargetKey {
			continue
		}
		field, err := users.ParsePermissionField(key)
		if err != nil {
			return req, fieldError(key, "is not an updatable field")
		}
		var flag *bool
		if err := json.Unmarshal(value, &flag); err != nil || flag == nil {
			return req, fieldError(key, "must be a boolean")
		}
		req.Changes[field] = *flag
	}
	return req, nil
}

func fieldError(field, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{field: msg})
}
