package authorization

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleInstructor UserRole = "instructor"
	RoleStudent    UserRole = "student"
)

var validRoles = map[UserRole]struct{}{
	RoleAdmin:      {},
	RoleInstructor: {},
	RoleStudent:    {},
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	_, ok := validRoles[r]
	return ok
}

func (r UserRole) Value() (driver.Value, error) {
	if r == "" {
		return string(RoleStudent), nil
	}
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid user role: %q", r)
	}
	return string(r), nil
}

func (r *UserRole) Scan(value interface{}) error {
	if value == nil {
		*r = RoleStudent
		return nil
	}

	role, ok := ParseUserRole(value)
	if !ok {
		return fmt.Errorf("invalid user role: %v", value)
	}
	*r = role
	return nil
}

type Permission string

const (
	PermissionManageUsers      Permission = "manage_users"
	PermissionManageAllCourses Permission = "manage_all_courses"
	PermissionAuthorCourses    Permission = "author_courses"
	PermissionManageCatalog    Permission = "manage_catalog"
	PermissionPurchaseCourses  Permission = "purchase_courses"
)

var rolePermissions = map[UserRole]map[Permission]struct{}{
	RoleAdmin: {
		PermissionManageUsers:      {},
		PermissionManageAllCourses: {},
		PermissionAuthorCourses:    {},
		PermissionManageCatalog:    {},
		PermissionPurchaseCourses:  {},
	},
	RoleInstructor: {
		PermissionAuthorCourses:   {},
		PermissionPurchaseCourses: {},
	},
	RoleStudent: {
		PermissionPurchaseCourses: {},
	},
}

func RoleHasPermission(role UserRole, permission Permission) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}

func ParseUserRole(value interface{}) (UserRole, bool) {
	var raw string
	switch v := value.(type) {
	case UserRole:
		raw = string(v)
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return "", false
	}

	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", false
	}
	return role, true
}
