package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemUserGroup_UserGroup(t *testing.T) {
	g := BaselineUserGroup.UserGroup()
	assert.Equal(t, "BASELINE_USER_GROUP", g.Name)
	assert.Equal(t, []string{"READ_PROFILE", "UPDATE_PROFILE"}, g.Permissions)

	admin := AdminGroup.UserGroup()
	assert.Equal(t, "ADMIN_GROUP", admin.Name)
	assert.Contains(t, admin.Permissions, "MANAGE_USERS")
}

func TestSystemUserGroup_UnknownHasNoPermissions(t *testing.T) {
	assert.Nil(t, SystemUserGroup("GUEST").Permissions())
	assert.Empty(t, SystemUserGroup("GUEST").UserGroup().Permissions)
}

func TestSystemUserGroups_EveryGroupHasPermissions(t *testing.T) {
	for _, g := range SystemUserGroups() {
		assert.NotEmpty(t, g.Permissions(), g.Name())
	}
}

func TestUser_InGroup(t *testing.T) {
	u := &User{GroupNames: []string{BaselineUserGroup.Name()}}
	assert.True(t, u.InGroup(BaselineUserGroup))
	assert.False(t, u.InGroup(AdminGroup))
}
