package handlers_test

import (
	"net/http"
	"testing"

	"github.com/mentorhub/marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin_Mentor(t *testing.T) {
	a := newTestApp(t)
	creds := map[string]string{
		"name":     "Ada Mentor",
		"email":    "Ada@Example.test",
		"password": "hunter22",
		"role":     models.RoleMentor,
	}

	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/auth/register", creds, "", nil))
	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, "/api/v1/auth/register", creds, "", nil))

	var count int64
	require.NoError(t, a.db.Model(&models.MentorProfile{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var login struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "ada@example.test", "password": "wrong"}, "", nil))
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "ada@example.test", "password": "hunter22"}, "", &login))
	assert.Equal(t, models.RoleMentor, login.Role)
	require.NotEmpty(t, login.Token)

	var profile models.MentorProfile
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/profile/mentor", nil, login.Token, &profile))
	assert.Equal(t, "ada@example.test", profile.User.Email)

	bio := "Ten years of backend work"
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPatch, "/api/v1/profile/mentor",
		map[string]interface{}{"bio": bio, "specialties": []string{"Go", "Postgres"}}, login.Token, &profile))
	require.NotNil(t, profile.Bio)
	assert.Equal(t, bio, *profile.Bio)
	assert.Equal(t, []string{"Go", "Postgres"}, []string(profile.Specialties))
}

func TestRegister_RejectsAdminRole(t *testing.T) {
	a := newTestApp(t)
	status := a.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Mallory", "email": "mallory@example.test", "password": "hunter22", "role": models.RoleAdmin,
	}, "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLogin_DisabledAccount(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.seedUser(t, models.RoleAdmin)
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Sam Student", "email": "sam@example.test", "password": "hunter22",
	}, "", nil))

	var sam models.User
	require.NoError(t, a.db.First(&sam, "email = ?", "sam@example.test").Error)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/api/v1/admin/users/"+sam.ID.String()+"/status",
		map[string]bool{"is_active": false}, adminToken, nil))

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": "sam@example.test", "password": "hunter22"}, "", nil))
}

func TestProtectedRoutes_RejectBadTokens(t *testing.T) {
	a := newTestApp(t)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodGet, "/api/v1/profile/me", nil, "", nil))
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/v1/profile/me", nil, "not.a.jwt", nil))
}
