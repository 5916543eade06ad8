package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zatgpt/zatgpt-backend/api/responses"
	"github.com/zatgpt/zatgpt-backend/api/validators"
	"github.com/zatgpt/zatgpt-backend/internal/conversations"
	"github.com/zatgpt/zatgpt-backend/pkg/logger"
)

// SessionCreate opens a new conversation for the caller.
func SessionCreate(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateSession(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// SessionList returns the caller's sessions, newest first.
func SessionList(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListSessions(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// MessageList returns a session transcript in conversation order.
func MessageList(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID, err := sessionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMessages(r.Context(), caller, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// MessageSend posts to the session named in the path.
func MessageSend(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body conversations.SendMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sendMessage(svc, logg, w, r, chi.URLParam(r, "sessionId"), body.Content)
	}
}

// MessageSendLegacy posts to the session named by session_id in the body.
func MessageSendLegacy(svc conversations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body conversations.SendMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.SessionID == "" {
			responses.WriteError(r.Context(), logg, w, fieldError("session_id", "is required"))
			return
		}
		sendMessage(svc, logg, w, r, body.SessionID, body.Content)
	}
}

func sendMessage(svc conversations.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request, rawSessionID, content string) {
	caller, err := callerFrom(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	sessionID, err := parseSessionID(rawSessionID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	ctx := r.Context()
	if logg != nil {
		ctx = logg.WithSessionID(ctx, sessionID.String())
	}

	reply, err := svc.SendMessage(ctx, caller, sessionID, content)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}

	responses.WriteSuccess(w, reply)
}
