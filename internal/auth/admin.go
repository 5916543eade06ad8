package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/internal/authz"
	"github.com/zatgpt/zatgpt-backend/internal/users"
	"github.com/zatgpt/zatgpt-backend/pkg/db/models"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
)

// AdminService exposes user administration to staff and super admins.
type AdminService interface {
	CheckAdmin(caller authz.Caller) (*AdminCheckResponse, error)
	ListUsers(ctx context.Context, caller authz.Caller) ([]users.UserDTO, error)
	UpdatePermissions(ctx context.Context, caller authz.Caller, req UpdatePermissionsRequest) (*users.UserDTO, error)
}

type adminUserRepository interface {
	FindByIdentity(ctx context.Context, identity uuid.UUID) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdatePermissions(ctx context.Context, id int64, changes users.PermissionChanges) error
}

type adminService struct {
	users adminUserRepository
}

// NewAdminService builds the administration service.
func NewAdminService(repo adminUserRepository) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &adminService{users: repo}, nil
}

func (s *adminService) CheckAdmin(caller authz.Caller) (*AdminCheckResponse, error) {
	if err := authz.Require(caller, authz.ActionCheckAdmin); err != nil {
		return nil, err
	}
	role := enums.AdminRoleStaff
	if caller.Rank() == authz.RankSuperAdmin {
		role = enums.AdminRoleSuperuser
	}
	return &AdminCheckResponse{IsAdmin: true, Role: role}, nil
}

func (s *adminService) ListUsers(ctx context.Context, caller authz.Caller) ([]users.UserDTO, error) {
	if err := authz.Require(caller, authz.ActionListUsers); err != nil {
		return nil, err
	}
	list, err := s.users.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return users.FromModels(list), nil
}

// UpdatePermissions applies changes wholesale or not at all. Super-admins may
// set any flag. Staff-admins may set only the staff flag, must supply it
// alone, and cannot touch a super-admin.
func (s *adminService) UpdatePermissions(ctx context.Context, caller authz.Caller, req UpdatePermissionsRequest) (*users.UserDTO, error) {
	if err := authz.Require(caller, authz.ActionUpdatePermission); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have permission to perform this action")
	}

	rank := caller.Rank()
	if rank == authz.RankStaffAdmin {
		if len(req.Changes) == 0 || !req.Changes.Within(users.FieldStaffAdmin) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have permission to modify this field")
		}
	}

	target, err := s.users.FindByIdentity(ctx, req.Identity)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if rank == authz.RankStaffAdmin && target.IsSuperuser {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have permission to modify this user")
	}

	if len(req.Changes) == 0 {
		return users.FromModel(target), nil
	}
	if err := s.users.UpdatePermissions(ctx, target.ID, req.Changes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update permissions")
	}

	updated, err := s.users.FindByID(ctx, target.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return users.FromModel(updated), nil
}
