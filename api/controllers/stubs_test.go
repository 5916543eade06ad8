package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/internal/auth"
	"github.com/zatgpt/zatgpt-backend/internal/authz"
	"github.com/zatgpt/zatgpt-backend/internal/conversations"
	"github.com/zatgpt/zatgpt-backend/internal/users"
	pkgAuth "github.com/zatgpt/zatgpt-backend/pkg/auth"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
)

type stubAuthService struct {
	login      *auth.LoginResponse
	pair       *auth.TokenPair
	err        error
	loggedOut  string
	gotLogin   auth.LoginRequest
	gotRefresh auth.RefreshRequest
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.gotLogin = req
	return s.login, s.err
}

func (s *stubAuthService) Refresh(_ context.Context, req auth.RefreshRequest) (*auth.TokenPair, error) {
	s.gotRefresh = req
	return s.pair, s.err
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

func (s *stubAuthService) Resolve(context.Context, string) (authz.Caller, *pkgAuth.AccessTokenClaims, error) {
	return authz.Caller{}, nil, s.err
}

type stubRegisterService struct {
	user *users.UserDTO
	err  error
	got  auth.RegisterRequest
}

func (s *stubRegisterService) Register(_ context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.got = req
	return s.user, s.err
}

type stubAdminRegisterService struct {
	user    *users.UserDTO
	err     error
	gotTier enums.AdminTier
	gotReq  auth.CreatePrivilegedRequest
}

func (s *stubAdminRegisterService) CreatePrivileged(_ context.Context, _ authz.Caller, tier enums.AdminTier, req auth.CreatePrivilegedRequest) (*users.UserDTO, error) {
	s.gotTier = tier
	s.gotReq = req
	return s.user, s.err
}

type stubAdminService struct {
	check   *auth.AdminCheckResponse
	list    []users.UserDTO
	user    *users.UserDTO
	err     error
	calls   int
	gotPerm auth.UpdatePermissionsRequest
}

func (s *stubAdminService) CheckAdmin(authz.Caller) (*auth.AdminCheckResponse, error) {
	return s.check, s.err
}

func (s *stubAdminService) ListUsers(context.Context, authz.Caller) ([]users.UserDTO, error) {
	return s.list, s.err
}

func (s *stubAdminService) UpdatePermissions(_ context.Context, _ authz.Caller, req auth.UpdatePermissionsRequest) (*users.UserDTO, error) {
	s.calls++
	s.gotPerm = req
	return s.user, s.err
}

type stubConversations struct {
	created    *conversations.CreatedSession
	sessions   []conversations.SessionSummary
	messages   []conversations.MessageDTO
	reply      *conversations.Reply
	err        error
	sendCalls  int
	gotSession uuid.UUID
	gotContent string
}

func (s *stubConversations) CreateSession(context.Context, authz.Caller) (*conversations.CreatedSession, error) {
	return s.created, s.err
}

func (s *stubConversations) ListSessions(context.Context, authz.Caller) ([]conversations.SessionSummary, error) {
	return s.sessions, s.err
}

func (s *stubConversations) ListMessages(_ context.Context, _ authz.Caller, id uuid.UUID) ([]conversations.MessageDTO, error) {
	s.gotSession = id
	return s.messages, s.err
}

func (s *stubConversations) SendMessage(_ context.Context, _ authz.Caller, id uuid.UUID, content string) (*conversations.Reply, error) {
	s.sendCalls++
	s.gotSession = id
	s.gotContent = content
	return s.reply, s.err
}

var testCaller = authz.Caller{UserID: 1, Identity: uuid.New(), Handle: "alice", Email: "alice@example.com", Active: true}

func newRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		r.Header.Set("Content-Type", "application/json")
	}
	return r
}

func asCaller(r *http.Request, caller authz.Caller) *http.Request {
	return r.WithContext(authz.WithCaller(r.Context(), caller))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func serve(t *testing.T, h http.Handler, r *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return w, env
}
