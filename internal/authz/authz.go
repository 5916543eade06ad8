// Package authz decides whether an authenticated caller may perform an action.
package authz

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/zatgpt/zatgpt-backend/pkg/errors"
)

// Rank orders callers by privilege. Higher ranks include every lower one.
type Rank int

const (
	RankRegular Rank = iota
	RankStaffAdmin
	RankSuperAdmin
)

func (r Rank) String() string {
	switch r {
	case RankSuperAdmin:
		return "super_admin"
	case RankStaffAdmin:
		return "staff_admin"
	default:
		return "regular"
	}
}

// Caller is the role snapshot of the authenticated user for one request.
type Caller struct {
	UserID     int64
	Identity   uuid.UUID
	Handle     string
	Email      string
	Active     bool
	StaffAdmin bool
	SuperAdmin bool
}

// Rank derives the caller's rank from the stored flags. Super-admin implies
// staff-admin even when the staff flag is unset.
func (c Caller) Rank() Rank {
	switch {
	case c.SuperAdmin:
		return RankSuperAdmin
	case c.StaffAdmin:
		return RankStaffAdmin
	default:
		return RankRegular
	}
}

// Action names an operation guarded by the gate.
type Action string

const (
	ActionViewProfile      Action = "profile.view"
	ActionCreateSession    Action = "session.create"
	ActionListSessions     Action = "session.list"
	ActionSendMessage      Action = "message.send"
	ActionReadMessages     Action = "message.read"
	ActionCheckAdmin       Action = "admin.check"
	ActionListUsers        Action = "users.list"
	ActionUpdatePermission Action = "users.permissions"
	ActionCreateAdmin      Action = "users.create_admin"
	ActionCreateSuperAdmin Action = "users.create_superadmin"
)

var minimumRank = map[Action]Rank{
	ActionViewProfile:      RankRegular,
	ActionCreateSession:    RankRegular,
	ActionListSessions:     RankRegular,
	ActionSendMessage:      RankRegular,
	ActionReadMessages:     RankRegular,
	ActionCheckAdmin:       RankStaffAdmin,
	ActionListUsers:        RankRegular,
	ActionUpdatePermission: RankStaffAdmin,
	ActionCreateAdmin:      RankSuperAdmin,
	ActionCreateSuperAdmin: RankSuperAdmin,
}

// MinimumRank returns the rank required for action. Unknown actions require
// more than any caller can hold.
func MinimumRank(action Action) Rank {
	if rank, ok := minimumRank[action]; ok {
		return rank
	}
	return RankSuperAdmin + 1
}

// Allow reports whether caller may perform action. Inactive callers are denied.
func Allow(caller Caller, action Action) bool {
	if !caller.Active {
		return false
	}
	return caller.Rank() >= MinimumRank(action)
}

// Require returns a FORBIDDEN error when Allow is false.
func Require(caller Caller, action Action) error {
	if Allow(caller, action) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permissions")
}

type ctxKey struct{}

// WithCaller stores the resolved caller on ctx.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller)
}

// CallerFromContext returns the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(ctxKey{}).(Caller)
	return caller, ok
}
