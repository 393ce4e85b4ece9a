package entity

import "time"

// User represents an account row in the `app_user` table.
// Optional profile fields are nil until the owner sets them.
type User struct {
	ID              int64
	SecurityKeyHash string
	Alias           *string
	AvatarFileID    *int64
	Emails          []string // nil when the user has not registered any
	CreatedAt       time.Time
	ActiveLevel     int // 0 = inactive / unverified
	GroupNames      []string
}

// InGroup reports whether the user is a member of g.
func (u *User) InGroup(g SystemUserGroup) bool {
	for _, name := range u.GroupNames {
		if name == g.Name() {
			return true
		}
	}
	return false
}

// UserGroup is a row of the `user_group` table.
type UserGroup struct {
	Name        string
	Permissions []string
}
