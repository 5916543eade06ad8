package users

import "fmt"

// PermissionField is one updatable role flag.
type PermissionField string

const (
	FieldActive     PermissionField = "is_active"
	FieldStaffAdmin PermissionField = "is_staff"
	FieldSuperAdmin PermissionField = "is_superuser"
)

// Column returns the users table column backing the field.
func (f PermissionField) Column() string {
	return string(f)
}

// ParsePermissionField maps a request key onto a known field.
func ParsePermissionField(key string) (PermissionField, error) {
	switch PermissionField(key) {
	case FieldActive, FieldStaffAdmin, FieldSuperAdmin:
		return PermissionField(key), nil
	}
	return "", fmt.Errorf("unknown permission field %q", key)
}

// PermissionChanges holds exactly the flags the caller supplied.
type PermissionChanges map[PermissionField]bool

// Within reports whether every supplied field is in allowed.
func (c PermissionChanges) Within(allowed ...PermissionField) bool {
	for f := range c {
		ok := false
		for _, a := range allowed {
			if f == a {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
