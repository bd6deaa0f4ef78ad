package rest_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/santosrp/clanhub/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminListUsers(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.seedUser(t, "Admin", model.RoleAdmin, nil)
	ts.seedUser(t, "Someone", model.RoleMember, nil)
	token := ts.tokenFor(t, admin.ID)

	w := getReq(ts.r, "/api/admin/users", bearer(token)...)
	require.Equal(t, http.StatusOK, w.Code)

	users := decode(t, w)["users"].([]interface{})
	assert.Len(t, users, 2)
}

func TestAdminListUsers_MemberForbidden(t *testing.T) {
	ts := newTestServer(t)
	member := ts.seedUser(t, "Member", model.RoleMember, nil)
	token := ts.tokenFor(t, member.ID)

	w := getReq(ts.r, "/api/admin/users", bearer(token)...)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminChangeRole(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.seedUser(t, "Admin", model.RoleAdmin, nil)
	target := ts.seedUser(t, "Promotee", model.RoleMember, nil)
	token := ts.tokenFor(t, admin.ID)

	w := postJSON(ts.r, fmt.Sprintf("/api/admin/users/%d/role", target.ID),
		map[string]string{"role": "clan_owner"}, bearer(token)...)
	require.Equal(t, http.StatusOK, w.Code)

	var fresh model.User
	require.NoError(t, ts.db.First(&fresh, target.ID).Error)
	assert.Equal(t, model.RoleClanOwner, fresh.Role)
}

func TestAdminChangeRole_InvalidRole(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.seedUser(t, "Admin", model.RoleAdmin, nil)
	target := ts.seedUser(t, "Target", model.RoleMember, nil)
	token := ts.tokenFor(t, admin.ID)

	w := postJSON(ts.r, fmt.Sprintf("/api/admin/users/%d/role", target.ID),
		map[string]string{"role": "emperor"}, bearer(token)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminChangeRole_MemberForbidden(t *testing.T) {
	ts := newTestServer(t)
	member := ts.seedUser(t, "Member", model.RoleMember, nil)
	target := ts.seedUser(t, "Target", model.RoleMember, nil)
	token := ts.tokenFor(t, member.ID)

	w := postJSON(ts.r, fmt.Sprintf("/api/admin/users/%d/role", target.ID),
		map[string]string{"role": "admin"}, bearer(token)...)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminChangeRole_UnknownUser(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.seedUser(t, "Admin", model.RoleAdmin, nil)
	token := ts.tokenFor(t, admin.ID)

	w := postJSON(ts.r, "/api/admin/users/999/role",
		map[string]string{"role": "member"}, bearer(token)...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
