package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatgpt/zatgpt-backend/internal/authz"
	"github.com/zatgpt/zatgpt-backend/internal/users"
	"github.com/zatgpt/zatgpt-backend/pkg/auth/session"
	"github.com/zatgpt/zatgpt-backend/pkg/config"
	"github.com/zatgpt/zatgpt-backend/pkg/db"
	"github.com/zatgpt/zatgpt-backend/pkg/db/dbtest"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
	redisclient "github.com/zatgpt/zatgpt-backend/pkg/redis"
	"github.com/zatgpt/zatgpt-backend/pkg/security"
)

type fixture struct {
	db       *db.Client
	repo     *users.Repository
	hasher   *security.Hasher
	sessions *session.Manager
	redis    *miniredis.Miniredis
	jwtCfg   config.JWTConfig

	auth     Service
	register RegisterService
	admins   AdminRegisterService
	admin    AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	client := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rc, err := redisclient.New(ctx, config.RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	jwtCfg := config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "zatgpt",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
	sessions, err := session.NewManager(rc, jwtCfg)
	require.NoError(t, err)

	hasher := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	repo := users.NewRepository(client.DB())

	f := &fixture{db: client, repo: repo, hasher: hasher, sessions: sessions, redis: mr, jwtCfg: jwtCfg}
	f.auth, err = NewService(ServiceParams{UserRepo: repo, SessionManager: sessions, Hasher: hasher, JWTConfig: jwtCfg})
	require.NoError(t, err)
	f.register, err = NewRegisterService(RegisterServiceParams{DB: client, Hasher: hasher})
	require.NoError(t, err)
	f.admins, err = NewAdminRegisterService(AdminRegisterServiceParams{DB: client, Hasher: hasher})
	require.NoError(t, err)
	f.admin, err = NewAdminService(repo)
	require.NoError(t, err)
	return f
}

func (f *fixture) registerUser(t *testing.T, handle string) *users.UserDTO {
	t.Helper()
	u, err := f.register.Register(context.Background(), RegisterRequest{
		Username: handle,
		Account:  handle + "-acct",
		Email:    handle + "@example.com",
		Password: "pw123456",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) caller(t *testing.T, handle string) authz.Caller {
	t.Helper()
	u, err := f.repo.FindByHandle(context.Background(), handle)
	require.NoError(t, err)
	return CallerFromUser(u)
}

func (f *fixture) promote(t *testing.T, handle string, changes users.PermissionChanges) {
	t.Helper()
	u, err := f.repo.FindByHandle(context.Background(), handle)
	require.NoError(t, err)
	require.NoError(t, f.repo.UpdatePermissions(context.Background(), u.ID, changes))
}

func userCount(t *testing.T, f *fixture) int {
	t.Helper()
	list, err := f.repo.List(context.Background())
	require.NoError(t, err)
	return len(list)
}

func TestRegisterScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, err := f.register.Register(ctx, RegisterRequest{Username: "alice", Account: "a1", Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, "alice", alice.Handle)
	assert.True(t, alice.IsActive)
	assert.False(t, alice.IsStaff)
	assert.False(t, alice.IsSuperuser)

	_, err = f.register.Register(ctx, RegisterRequest{Username: "alice", Account: "a2", Email: "other@x.com", Password: "pw123456"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicate))
	assert.Equal(t, map[string]any{"field": "username"}, pkgerrors.As(err).Details())
	assert.Equal(t, 1, userCount(t, f))
}

func TestRegisterDuplicateAccountAndEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "alice")

	_, err := f.register.Register(ctx, RegisterRequest{Username: "bob", Account: "alice-acct", Email: "b@x.com", Password: "pw"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicate))
	assert.Equal(t, map[string]any{"field": "account"}, pkgerrors.As(err).Details())

	_, err = f.register.Register(ctx, RegisterRequest{Username: "bob", Account: "b1", Email: " ALICE@example.com ", Password: "pw"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicate))
	assert.Equal(t, map[string]any{"field": "email"}, pkgerrors.As(err).Details())

	assert.Equal(t, 1, userCount(t, f))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.register.Register(context.Background(), RegisterRequest{Username: " ", Account: "a", Email: "a@x.com", Password: "pw"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = f.register.Register(context.Background(), RegisterRequest{Username: "a", Account: "a", Email: "a@x.com"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	_, err = f.register.Register(context.Background(), RegisterRequest{Username: "a", Account: "a", Email: "a-at-x.com", Password: "pw"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, 0, userCount(t, f))
}

func TestCreatePrivilegedRejectsMalformedEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "root")
	f.promote(t, "root", users.PermissionChanges{users.FieldSuperAdmin: true})
	root := f.caller(t, "root")

	for _, email := range []string{"not-an-email", "ops@", "@example.com"} {
		_, err := f.admins.CreatePrivileged(ctx, root, enums.AdminTierAdmin, CreatePrivilegedRequest{Username: "ops", Password: "pw123456", Email: email})
		require.Error(t, err, email)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), email)
		assert.Equal(t, "email must be a valid email", pkgerrors.As(err).Message())
	}
	assert.Equal(t, 1, userCount(t, f))
}

func TestLoginScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.register.Register(ctx, RegisterRequest{Username: "alice", Account: "a1", Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)

	resp, err := f.auth.Login(ctx, LoginRequest{Username: "alice", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, "Login successful!", resp.Message)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	require.NotNil(t, resp.User.LastLoginAt)

	caller, claims, err := f.auth.Resolve(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", caller.Handle)
	assert.Equal(t, "a@x.com", caller.Email)
	assert.Equal(t, authz.RankRegular, caller.Rank())
	assert.NotEmpty(t, claims.ID)

	_, err = f.auth.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCredentials))

	_, err = f.auth.Login(ctx, LoginRequest{Username: "nobody", Password: "pw123456"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCredentials))
}

func TestLoginFailsForInactiveUser(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "carol")
	f.promote(t, "carol", users.PermissionChanges{users.FieldActive: false})

	_, err := f.auth.Login(context.Background(), LoginRequest{Username: "carol", Password: "pw123456"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeCredentials))
}

func TestResolveRejectsRevokedAndDeactivated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "dave")

	resp, err := f.auth.Login(ctx, LoginRequest{Username: "dave", Password: "pw123456"})
	require.NoError(t, err)

	_, _, err = f.auth.Resolve(ctx, "not-a-token")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	f.promote(t, "dave", users.PermissionChanges{users.FieldActive: false})
	_, _, err = f.auth.Resolve(ctx, resp.AccessToken)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	f.promote(t, "dave", users.PermissionChanges{users.FieldActive: true})
	_, claims, err := f.auth.Resolve(ctx, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, claims.ID))
	_, _, err = f.auth.Resolve(ctx, resp.AccessToken)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestResolveSurfacesRedisOutage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "erin")
	resp, err := f.auth.Login(ctx, LoginRequest{Username: "erin", Password: "pw123456"})
	require.NoError(t, err)

	f.redis.SetError("down")
	_, _, err = f.auth.Resolve(ctx, resp.AccessToken)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "frank")
	resp, err := f.auth.Login(ctx, LoginRequest{Username: "frank", Password: "pw123456"})
	require.NoError(t, err)

	pair, err := f.auth.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, pair.RefreshToken)

	_, _, err = f.auth.Resolve(ctx, resp.AccessToken)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	caller, _, err := f.auth.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "frank", caller.Handle)

	_, err = f.auth.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "gina")

	past := time.Now().Add(-30 * time.Minute)
	svc, err := NewService(ServiceParams{
		UserRepo:       f.repo,
		SessionManager: f.sessions,
		Hasher:         f.hasher,
		JWTConfig:      f.jwtCfg,
		Now:            func() time.Time { return past },
	})
	require.NoError(t, err)
	resp, err := svc.Login(ctx, LoginRequest{Username: "gina", Password: "pw123456"})
	require.NoError(t, err)

	_, _, err = f.auth.Resolve(ctx, resp.AccessToken)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	pair, err := f.auth.Refresh(ctx, RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	_, _, err = f.auth.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
}

func TestCreatePrivilegedRequiresSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "bob")
	f.registerUser(t, "stan")
	f.promote(t, "stan", users.PermissionChanges{users.FieldStaffAdmin: true})

	req := CreatePrivilegedRequest{Username: "eve", Password: "pw123456", Email: "eve@x.com"}
	for _, handle := range []string{"bob", "stan"} {
		for _, tier := range []enums.AdminTier{enums.AdminTierAdmin, enums.AdminTierSuperAdmin} {
			_, err := f.admins.CreatePrivileged(ctx, f.caller(t, handle), tier, req)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden), "%s/%s", handle, tier)
		}
	}
	assert.Equal(t, 2, userCount(t, f))
}

func TestCreatePrivilegedSetsFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerUser(t, "root")
	f.promote(t, "root", users.PermissionChanges{users.FieldSuperAdmin: true})
	root := f.caller(t, "root")

	admin, err := f.admins.CreatePrivileged(ctx, root, enums.AdminTierAdmin, CreatePrivilegedRequest{Username: "adm", Password: "pw", Email: "adm@x.com"})
	require.NoError(t, err)
	assert.True(t, admin.IsStaff)
	assert.False(t, admin.IsSuperuser)
	assert.Equal(t, "adm", admin.Account)

	super, err := f.admins.CreatePrivileged(ctx, root, enums.AdminTierSuperAdmin, CreatePrivilegedRequest{Username: "sup", Password: "pw", Email: "sup@x.com", Account: "sup-acct"})
	require.NoError(t, err)
	assert.True(t, super.IsStaff)
	assert.True(t, super.IsSuperuser)
	assert.Equal(t, "sup-acct", super.Account)

	_, err = f.admins.CreatePrivileged(ctx, root, enums.AdminTierAdmin, CreatePrivilegedRequest{Username: "x", Email: "x@x.com"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.admins.CreatePrivileged(ctx, root, enums.AdminTierAdmin, CreatePrivilegedRequest{Username: "adm", Password: "pw", Email: "adm2@x.com"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDuplicate))
}

func TestCheckAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.admin.CheckAdmin(authz.Caller{Active: true})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	resp, err := f.admin.CheckAdmin(authz.Caller{Active: true, StaffAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, AdminCheckResponse{IsAdmin: true, Role: enums.AdminRoleStaff}, *resp)

	resp, err = f.admin.CheckAdmin(authz.Caller{Active: true, SuperAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, enums.AdminRoleSuperuser, resp.Role)
}

func TestListUsersOpenToActiveCallers(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "alice")
	f.registerUser(t, "stan")
	f.promote(t, "stan", users.PermissionChanges{users.FieldStaffAdmin: true})

	list, err := f.admin.ListUsers(context.Background(), f.caller(t, "alice"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Handle)
	assert.True(t, list[1].IsStaff)

	_, err = f.admin.ListUsers(context.Background(), authz.Caller{Identity: list[0].Identity})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestUpdatePermissionsStaffAdminRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.registerUser(t, "tina")
	f.registerUser(t, "stan")
	f.promote(t, "stan", users.PermissionChanges{users.FieldStaffAdmin: true})
	stan := f.caller(t, "stan")

	_, err := f.admin.UpdatePermissions(ctx, stan, UpdatePermissionsRequest{
		Identity: target.Identity,
		Changes:  users.PermissionChanges{users.FieldStaffAdmin: false, users.FieldActive: true},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = f.admin.UpdatePermissions(ctx, stan, UpdatePermissionsRequest{Identity: target.Identity})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	unchanged, err := f.repo.FindByIdentity(ctx, target.Identity)
	require.NoError(t, err)
	assert.True(t, unchanged.IsActive)
	assert.False(t, unchanged.IsStaff)

	updated, err := f.admin.UpdatePermissions(ctx, stan, UpdatePermissionsRequest{
		Identity: target.Identity,
		Changes:  users.PermissionChanges{users.FieldStaffAdmin: true},
	})
	require.NoError(t, err)
	assert.True(t, updated.IsStaff)
	assert.False(t, updated.IsSuperuser)
}

func TestUpdatePermissionsStaffCannotTouchSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := f.registerUser(t, "root")
	f.promote(t, "root", users.PermissionChanges{users.FieldSuperAdmin: true, users.FieldStaffAdmin: true})
	f.registerUser(t, "stan")
	f.promote(t, "stan", users.PermissionChanges{users.FieldStaffAdmin: true})

	_, err := f.admin.UpdatePermissions(ctx, f.caller(t, "stan"), UpdatePermissionsRequest{
		Identity: root.Identity,
		Changes:  users.PermissionChanges{users.FieldStaffAdmin: false},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

func TestUpdatePermissionsSuperAdminAndRegular(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	target := f.registerUser(t, "tina")
	f.registerUser(t, "bob")
	f.registerUser(t, "root")
	f.promote(t, "root", users.PermissionChanges{users.FieldSuperAdmin: true})
	root := f.caller(t, "root")

	_, err := f.admin.UpdatePermissions(ctx, f.caller(t, "bob"), UpdatePermissionsRequest{
		Identity: target.Identity,
		Changes:  users.PermissionChanges{users.FieldStaffAdmin: true},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	updated, err := f.admin.UpdatePermissions(ctx, root, UpdatePermissionsRequest{
		Identity: target.Identity,
		Changes: users.PermissionChanges{
			users.FieldActive:     false,
			users.FieldStaffAdmin: true,
			users.FieldSuperAdmin: true,
		},
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.IsStaff)
	assert.True(t, updated.IsSuperuser)

	same, err := f.admin.UpdatePermissions(ctx, root, UpdatePermissionsRequest{Identity: target.Identity})
	require.NoError(t, err)
	assert.Equal(t, updated.IsStaff, same.IsStaff)

	missing := target.Identity
	missing[0] ^= 0xff
	_, err = f.admin.UpdatePermissions(ctx, root, UpdatePermissionsRequest{
		Identity: missing,
		Changes:  users.PermissionChanges{users.FieldActive: true},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
