package auth

import (
	"context"

	"github.com/zatgpt/zatgpt-backend/internal/authz"
	"github.com/zatgpt/zatgpt-backend/internal/users"
	"github.com/zatgpt/zatgpt-backend/pkg/db"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
	"github.com/zatgpt/zatgpt-backend/pkg/security"
)

// AdminRegisterService creates privileged accounts on behalf of a super-admin.
type AdminRegisterService interface {
	CreatePrivileged(ctx context.Context, caller authz.Caller, tier enums.AdminTier, req CreatePrivilegedRequest) (*users.UserDTO, error)
}

// AdminRegisterServiceParams names the dependencies for the privileged flow.
type AdminRegisterServiceParams struct {
	DB     *db.Client
	Hasher *security.Hasher
}

type adminRegisterService struct {
	db     *db.Client
	hasher *security.Hasher
}

// NewAdminRegisterService builds the privileged account creation service.
func NewAdminRegisterService(params AdminRegisterServiceParams) (AdminRegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher required")
	}
	return &adminRegisterService{db: params.DB, hasher: params.Hasher}, nil
}

// CreatePrivileged requires a super-admin caller for either tier. Admins get
// the staff flag; superadmins get both flags.
func (s *adminRegisterService) CreatePrivileged(ctx context.Context, caller authz.Caller, tier enums.AdminTier, req CreatePrivilegedRequest) (*users.UserDTO, error) {
	action := authz.ActionCreateAdmin
	switch tier {
	case enums.AdminTierAdmin:
	case enums.AdminTierSuperAdmin:
		action = authz.ActionCreateSuperAdmin
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid admin tier")
	}
	if err := authz.Require(caller, action); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only superadmins can create "+tier.String()+"s")
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username, password, and email are required")
	}
	account := req.Account
	if account == "" {
		account = req.Username
	}

	dto, err := newUserDTO(req.Username, account, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	dto.IsStaff = true
	dto.IsSuperuser = tier == enums.AdminTierSuperAdmin
	return createUser(ctx, s.db, s.hasher, dto, req.Password)
}
