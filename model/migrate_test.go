package model_test

import (
	"testing"
	"time"

	"github.com/santosrp/clanhub/server/model"
	"github.com/santosrp/clanhub/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// User
	did := "user#0001"
	user := &model.User{Name: "Tester", DiscordID: &did, Role: model.RoleMember, Status: model.StatusPending}
	require.NoError(t, db.Create(user).Error)
	assert.Greater(t, user.ID, int64(0))

	var found model.User
	require.NoError(t, db.First(&found, user.ID).Error)
	assert.Equal(t, "Tester", found.Name)
	assert.Nil(t, found.ClanID)

	// Clan
	clan := &model.Clan{Name: "TestClan", Description: "a clan"}
	require.NoError(t, db.Create(clan).Error)
	assert.Greater(t, clan.ID, int64(0))

	// JoinRequest
	jr := &model.JoinRequest{UserID: user.ID, ClanID: clan.ID, Status: model.StatusPending}
	require.NoError(t, db.Create(jr).Error)

	// Announcement
	an := &model.Announcement{AuthorID: &user.ID, Content: "welcome", Priority: model.PriorityNormal}
	require.NoError(t, db.Create(an).Error)

	// AuditLog
	al := &model.AuditLog{
		TraceID: "trace-001", Action: "register",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(al).Error)
}

func TestDiscordIDUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)

	did := "dup#1234"
	require.NoError(t, db.Create(&model.User{Name: "First", DiscordID: &did}).Error)
	err := db.Create(&model.User{Name: "Second", DiscordID: &did}).Error
	assert.Error(t, err)
}

func TestValidRole(t *testing.T) {
	assert.True(t, model.ValidRole(model.RoleAdmin))
	assert.True(t, model.ValidRole(model.RoleClanOwner))
	assert.True(t, model.ValidRole(model.RoleMember))
	assert.False(t, model.ValidRole("owner"))
	assert.False(t, model.ValidRole(""))
}
