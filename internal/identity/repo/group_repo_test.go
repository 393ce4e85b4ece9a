package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e8yes/webchat/internal/identity/entity"
)

func TestGroupRepo_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO user_group .* ON CONFLICT \(group_name\) DO UPDATE`).
		WithArgs("BASELINE_USER_GROUP", `{"READ_PROFILE","UPDATE_PROFILE"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewGroupRepo(db).Upsert(context.Background(), entity.BaselineUserGroup.UserGroup())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepo_Upsert_Error(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(`INSERT INTO user_group`).WillReturnError(errors.New("boom"))

	err := NewGroupRepo(db).Upsert(context.Background(), entity.AdminGroup.UserGroup())
	assert.EqualError(t, err, "upsert user_group ADMIN_GROUP: boom")
}

func TestGroupRepo_ListByNames(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT group_name, permissions FROM user_group WHERE group_name = ANY\(\$1\)`).
		WithArgs(`{"BASELINE_USER_GROUP","GUEST"}`).
		WillReturnRows(sqlmock.NewRows([]string{"group_name", "permissions"}).
			AddRow("BASELINE_USER_GROUP", "{READ_PROFILE,UPDATE_PROFILE}"))

	got, err := NewGroupRepo(db).ListByNames(context.Background(), []string{"BASELINE_USER_GROUP", "GUEST"})
	require.NoError(t, err)
	assert.Equal(t, []entity.UserGroup{entity.BaselineUserGroup.UserGroup()}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
