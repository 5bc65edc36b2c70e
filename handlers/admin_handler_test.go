package handlers_test

import (
	"net/http"
	"testing"

	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminSetProjectVisibility(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.seedUser(t, models.RoleAdmin)
	_, studentToken := a.seedUser(t, models.RoleStudent)
	mentor, mentorToken := a.seedMentor(t, "")
	project := a.seedProject(t, mentor.ID, false, 1000)
	path := "/api/v1/admin/projects/" + project.ID.String()

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, path, map[string]bool{"is_active": true}, studentToken, nil))
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, path, map[string]bool{"is_active": true}, mentorToken, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPatch, path, map[string]string{}, adminToken, nil))

	var updated models.Project
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPatch, path, map[string]bool{"is_active": true}, adminToken, &updated))
	assert.True(t, updated.IsActive)

	var list []map[string]interface{}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/projects", nil, "", &list))
	assert.Equal(t, []string{project.ID.String()}, ids(list))

	var events []models.AuditEvent
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/admin/audit-events?action="+services.AuditActionListingVisibility, nil, adminToken, &events))
	require.Len(t, events, 1)
	assert.Equal(t, project.ID.String(), events[0].TargetID)
	require.NotNil(t, events[0].NewValue)
	assert.Equal(t, "true", *events[0].NewValue)
}

func TestAdminSuppressAndRestoreMentor(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.seedUser(t, models.RoleAdmin)
	target, _ := a.seedMentor(t, "")
	bystander, _ := a.seedMentor(t, "")
	a.seedProject(t, target.ID, true, 1000)
	a.seedProject(t, target.ID, true, 2000)
	kept := a.seedProject(t, bystander.ID, true, 3000)

	var out struct {
		ListingsAffected int64 `json:"listings_affected"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/admin/mentors/"+target.ID.String()+"/suppress", nil, adminToken, &out))
	assert.EqualValues(t, 2, out.ListingsAffected)

	var list []map[string]interface{}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/projects", nil, "", &list))
	assert.Equal(t, []string{kept.ID.String()}, ids(list))

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/v1/admin/mentors/"+target.ID.String()+"/restore", nil, adminToken, &out))
	assert.EqualValues(t, 2, out.ListingsAffected)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/projects", nil, "", &list))
	assert.Len(t, list, 3)

	assert.Equal(t, http.StatusNotFound,
		a.do(t, http.MethodPost, "/api/v1/admin/mentors/"+kept.ID.String()+"/suppress", nil, adminToken, nil))
}

func TestCommissionRateEndpoints(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.seedUser(t, models.RoleAdmin)
	_, studentToken := a.seedUser(t, models.RoleStudent)
	path := "/api/v1/admin/config/commission-rate"

	var got struct {
		Rate        float64 `json:"rate"`
		DefaultRate float64 `json:"default_rate"`
	}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, path, nil, adminToken, &got))
	assert.Equal(t, 0.085, got.Rate)
	assert.Equal(t, 0.085, got.DefaultRate)

	var count int64
	require.NoError(t, a.db.Model(&models.SystemConfig{}).Count(&count).Error)
	assert.Zero(t, count, "reading the default must not persist it")

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPut, path, map[string]float64{"rate": 1.2}, adminToken, nil))
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPut, path, map[string]float64{"rate": -0.1}, adminToken, nil))
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPut, path, map[string]float64{"rate": 0.1}, studentToken, nil))

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, path, map[string]float64{"rate": 0.1}, adminToken, &got))
	assert.Equal(t, 0.1, got.Rate)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, path, nil, adminToken, &got))
	assert.Equal(t, 0.1, got.Rate)
}

func TestAdminListMentors_ReportsEarnings(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.seedUser(t, models.RoleAdmin)
	mentor, _ := a.seedMentor(t, "acct_paid")
	project := a.seedProject(t, mentor.ID, true, 29900)
	a.seedProject(t, mentor.ID, false, 1000)
	student, _ := a.seedUser(t, models.RoleStudent)

	require.NoError(t, a.db.Create(&models.Enrollment{
		ProjectID:           project.ID,
		StudentID:           student.ID,
		Status:              models.EnrollmentConfirmed,
		AmountCents:         29900,
		ApplicationFeeCents: 2542,
		Currency:            "usd",
	}).Error)

	var mentors []map[string]interface{}
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/admin/mentors", nil, adminToken, &mentors))
	require.Len(t, mentors, 1)
	assert.EqualValues(t, 1, mentors[0]["active_projects"])
	assert.EqualValues(t, 2, mentors[0]["total_projects"])
	assert.EqualValues(t, 27358, mentors[0]["earnings_cents"])
	assert.EqualValues(t, 2542, mentors[0]["fees_cents"])
	assert.Equal(t, true, mentors[0]["has_payout_account"])
}

func TestAdminReports_SurfaceDatabaseErrors(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.seedUser(t, models.RoleAdmin)
	mentor, _ := a.seedMentor(t, "acct_paid")
	a.seedProject(t, mentor.ID, true, 29900)

	require.NoError(t, a.db.Migrator().DropTable(&models.Enrollment{}))

	var body map[string]interface{}
	assert.Equal(t, http.StatusInternalServerError, a.do(t, http.MethodGet, "/api/v1/admin/mentors", nil, adminToken, &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, http.StatusInternalServerError, a.do(t, http.MethodGet, "/api/v1/admin/dashboard-analytics", nil, adminToken, nil))
}

func TestCategorySuggestions(t *testing.T) {
	a := newTestApp(t)
	_, adminToken := a.seedUser(t, models.RoleAdmin)

	assert.Equal(t, http.StatusBadRequest,
		a.do(t, http.MethodPost, "/api/v1/suggest-category", map[string]string{"name": "Robotics"}, "", nil))
	require.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, "/api/v1/suggest-category",
		map[string]string{"name": "Robotics", "contact_email": "Someone@Example.test"}, "", nil))

	var suggestions []models.CategorySuggestion
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/admin/category-suggestions", nil, adminToken, &suggestions))
	require.Len(t, suggestions, 1)
	assert.Equal(t, models.SuggestionPending, suggestions[0].Status)
	assert.Equal(t, "someone@example.test", suggestions[0].ContactEmail)

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPatch, "/api/v1/admin/category-suggestions/"+suggestions[0].ID.String(),
		map[string]string{"status": models.SuggestionApproved}, adminToken, nil))
	require.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/v1/admin/category-suggestions?status=approved", nil, adminToken, &suggestions))
	assert.Len(t, suggestions, 1)
}
