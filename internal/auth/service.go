package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/internal/authz"
	"github.com/zatgpt/zatgpt-backend/internal/users"
	pkgAuth "github.com/zatgpt/zatgpt-backend/pkg/auth"
	"github.com/zatgpt/zatgpt-backend/pkg/auth/session"
	"github.com/zatgpt/zatgpt-backend/pkg/config"
	"github.com/zatgpt/zatgpt-backend/pkg/db/models"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
	"github.com/zatgpt/zatgpt-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service covers authentication and bearer resolution.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	Resolve(ctx context.Context, bearer string) (authz.Caller, *pkgAuth.AccessTokenClaims, error)
}

type userRepository interface {
	FindByHandle(ctx context.Context, handle string) (*models.User, error)
	FindByIdentity(ctx context.Context, identity uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type sessionManager interface {
	Issue(ctx context.Context) (string, string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Hasher         *security.Hasher
	JWTConfig      config.JWTConfig
	Now            func() time.Time
}

type service struct {
	users   userRepository
	session sessionManager
	hasher  *security.Hasher
	jwtCfg  config.JWTConfig
	now     func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:   params.UserRepo,
		session: params.SessionManager,
		hasher:  params.Hasher,
		jwtCfg:  params.JWTConfig,
		now:     now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID, refreshToken, err := s.session.Issue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	accessToken, err := s.mint(now, user, accessID)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		Message:      loginSuccessMessage,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

// authenticate verifies the handle/password pair. Inactive accounts fail
// even when the password matches.
func (s *service) authenticate(ctx context.Context, handle, password string) (*models.User, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeCredentials, invalidCredentialsMessage)
	}

	user, err := s.users.FindByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			return nil, pkgerrors.New(pkgerrors.CodeCredentials, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeCredentials, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeCredentials, "account is inactive")
	}
	return user, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	user, err := s.users.FindByIdentity(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is inactive")
	}

	accessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}

	accessToken, err := s.mint(s.now().UTC(), user, accessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Resolve turns a bearer token into the caller's current role snapshot. The
// token must be valid, its session must still exist and the user must be active.
func (s *service) Resolve(ctx context.Context, bearer string) (authz.Caller, *pkgAuth.AccessTokenClaims, error) {
	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, bearer)
	if err != nil {
		return authz.Caller{}, nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	ok, err := s.session.HasSession(ctx, claims.ID)
	if err != nil {
		return authz.Caller{}, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if !ok {
		return authz.Caller{}, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
	}

	user, err := s.users.FindByIdentity(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return authz.Caller{}, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
		}
		return authz.Caller{}, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.IsActive {
		return authz.Caller{}, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is inactive")
	}
	return CallerFromUser(user), claims, nil
}

func (s *service) mint(now time.Time, user *models.User, accessID string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.Identity,
		Handle: user.Handle,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

// CallerFromUser snapshots the role flags of user.
func CallerFromUser(user *models.User) authz.Caller {
	return authz.Caller{
		UserID:     user.ID,
		Identity:   user.Identity,
		Handle:     user.Handle,
		Email:      user.Email,
		Active:     user.IsActive,
		StaffAdmin: user.IsStaff,
		SuperAdmin: user.IsSuperuser,
	}
}
