package enums

import "fmt"

// AdminTier selects which privileged account kind to create.
type AdminTier string

const (
	AdminTierAdmin      AdminTier = "admin"
	AdminTierSuperAdmin AdminTier = "superadmin"
)

// IsValid reports whether the value is a known AdminTier.
func (t AdminTier) IsValid() bool {
	return t == AdminTierAdmin || t == AdminTierSuperAdmin
}

// String implements fmt.Stringer.
func (t AdminTier) String() string {
	return string(t)
}

// ParseAdminTier converts raw input into an AdminTier.
func ParseAdminTier(value string) (AdminTier, error) {
	tier := AdminTier(value)
	if !tier.IsValid() {
		return "", fmt.Errorf("invalid admin tier %q", value)
	}
	return tier, nil
}

// AdminRole is the label reported by the admin permission check.
type AdminRole string

const (
	AdminRoleStaff     AdminRole = "staff"
	AdminRoleSuperuser AdminRole = "superuser"
)
