package user

type Permission string

const (
	// Check-in
	PermissionCheckInCreate  Permission = "checkin.create"
	PermissionCheckInViewOwn Permission = "checkin.view_own"
	PermissionCheckInViewAll Permission = "checkin.view_all"
	PermissionCheckInCorrect Permission = "checkin.correct"
	PermissionCheckInStats   Permission = "checkin.stats"

	// Escalas
	PermissionShiftView             Permission = "shift.view"
	PermissionShiftAssign           Permission = "shift.assign"
	PermissionShiftOverrideConflict Permission = "shift.override_conflict"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdministrator: {
		PermissionCheckInCreate,
		PermissionCheckInViewOwn,
		PermissionCheckInViewAll,
		PermissionCheckInCorrect,
		PermissionCheckInStats,
		PermissionShiftView,
		PermissionShiftAssign,
		PermissionShiftOverrideConflict,
	},
	RoleSupervisor: {
		PermissionCheckInCreate,
		PermissionCheckInViewOwn,
		PermissionCheckInViewAll,
		PermissionCheckInCorrect,
		PermissionCheckInStats,
		PermissionShiftView,
		PermissionShiftAssign,
	},
	RoleSocio: {
		PermissionCheckInCreate,
		PermissionCheckInViewOwn,
		PermissionShiftView,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
