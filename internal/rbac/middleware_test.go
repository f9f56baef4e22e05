package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/denguechat/denguechat-admin/internal/shared"
)

func serve(t *testing.T, guard func(http.Handler) http.Handler, profile *shared.Profile) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	if profile != nil {
		req = req.WithContext(shared.ContextWithProfile(req.Context(), *profile))
	}
	rr := httptest.NewRecorder()
	guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)
	return rr.Code
}

func TestRequireAny(t *testing.T) {
	m := Middleware{}
	coordinator := &shared.Profile{Username: "ana", Roles: []shared.ProfileRole{{Name: "coordinator", Permissions: []string{"Users.View", "teams.view"}}}}

	assert.Equal(t, http.StatusNoContent, serve(t, m.RequireAny(shared.PermUsersView, shared.PermRolesView), coordinator))
	assert.Equal(t, http.StatusForbidden, serve(t, m.RequireAny(shared.PermRolesView), coordinator))
	assert.Equal(t, http.StatusForbidden, serve(t, m.RequireAny(shared.PermUsersView), nil))
	assert.Equal(t, http.StatusNoContent, serve(t, m.RequireAny(), nil))
}

func TestRequireAll(t *testing.T) {
	m := Middleware{}
	coordinator := &shared.Profile{Roles: []shared.ProfileRole{{Name: "coordinator", Permissions: []string{"users.view"}}, {Name: "lead", Permissions: []string{"teams.view"}}}}
	assert.Equal(t, http.StatusNoContent, serve(t, m.RequireAll(shared.PermUsersView, shared.PermTeamsView), coordinator))
	assert.Equal(t, http.StatusForbidden, serve(t, m.RequireAll(shared.PermUsersView, shared.PermTeamsEdit), coordinator))
}

func TestAdminRoleGrantsEverything(t *testing.T) {
	admin := &shared.Profile{Roles: []shared.ProfileRole{{Name: "Admin"}}}
	assert.Equal(t, http.StatusNoContent, serve(t, Middleware{}.RequireAll(shared.PermAuditView, shared.PermPostsModerate), admin))
	assert.True(t, Can(*admin, shared.PermUsersEdit))
}

func TestForbiddenHandler(t *testing.T) {
	m := Middleware{Forbidden: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})}
	assert.Equal(t, http.StatusTeapot, serve(t, m.RequireAny(shared.PermUsersView), nil))
}
