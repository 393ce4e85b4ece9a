package entity

// SystemUserGroup is a user group every deployment carries.
type SystemUserGroup string

const (
	BaselineUserGroup SystemUserGroup = "BASELINE_USER_GROUP"
	AdminGroup        SystemUserGroup = "ADMIN_GROUP"
)

// Permission names a capability granted through group membership.
type Permission string

const (
	PermissionReadProfile   Permission = "READ_PROFILE"
	PermissionUpdateProfile Permission = "UPDATE_PROFILE"
	PermissionReadUsers     Permission = "READ_USERS"
	PermissionManageUsers   Permission = "MANAGE_USERS"
)

// SystemUserGroups returns every system group in a stable order.
func SystemUserGroups() []SystemUserGroup {
	return []SystemUserGroup{BaselineUserGroup, AdminGroup}
}

func (g SystemUserGroup) Name() string { return string(g) }

// Permissions returns the fixed permission set of the group.
func (g SystemUserGroup) Permissions() []Permission {
	switch g {
	case BaselineUserGroup:
		return []Permission{PermissionReadProfile, PermissionUpdateProfile}
	case AdminGroup:
		return []Permission{PermissionReadProfile, PermissionUpdateProfile, PermissionReadUsers, PermissionManageUsers}
	default:
		return nil
	}
}

// UserGroup converts the system group into its persisted form.
func (g SystemUserGroup) UserGroup() UserGroup {
	perms := g.Permissions()
	out := UserGroup{Name: g.Name(), Permissions: make([]string, 0, len(perms))}
	for _, p := range perms {
		out.Permissions = append(out.Permissions, string(p))
	}
	return out
}
