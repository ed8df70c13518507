package service

import "coursehub-backend/internal/authorization"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uint
	Role authorization.UserRole
}

func (a Actor) Can(permission authorization.Permission) bool {
	return a.ID != 0 && authorization.RoleHasPermission(a.Role, permission)
}

// Owns reports whether the actor may edit something owned by ownerID.
func (a Actor) Owns(ownerID uint) bool {
	if a.ID == 0 {
		return false
	}
	return a.ID == ownerID || a.Can(authorization.PermissionManageAllCourses)
}
