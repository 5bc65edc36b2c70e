package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/payments/paymentstest"
	"github.com/mentorhub/marketplace/routes"
	"github.com/mentorhub/marketplace/services"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type testApp struct {
	app     *fiber.App
	db      *gorm.DB
	gateway *paymentstest.FakeGateway
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	database.DB = db

	gateway := paymentstest.NewFakeGateway()
	require.NoError(t, services.Init(services.Deps{
		DB:                    db,
		Log:                   zap.NewNop(),
		Gateway:               gateway,
		DefaultCommissionRate: services.DefaultCommissionRate,
		BaseURL:               "http://localhost:3000",
	}))

	app := fiber.New()
	routes.Register(app)
	return &testApp{app: app, db: db, gateway: gateway}
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (a *testApp) do(t *testing.T, method, path string, body interface{}, token string, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.send(t, req, out)
}

func (a *testApp) send(t *testing.T, req *http.Request, out interface{}) int {
	t.Helper()
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func newRawRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func tokenFor(t *testing.T, user *models.User, mentorID *uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"email":   user.Email,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	if mentorID != nil {
		claims["mentor_id"] = mentorID.String()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (a *testApp) seedUser(t *testing.T, role string) (*models.User, string) {
	t.Helper()
	user := models.User{
		Name:     role + " " + uuid.NewString()[:6],
		Email:    uuid.NewString() + "@example.test",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, a.db.Create(&user).Error)
	return &user, tokenFor(t, &user, nil)
}

func (a *testApp) seedMentor(t *testing.T, accountID string) (*models.MentorProfile, string) {
	t.Helper()
	user, _ := a.seedUser(t, models.RoleMentor)
	profile := models.MentorProfile{UserID: user.ID}
	if accountID != "" {
		profile.StripeAccountID = &accountID
	}
	require.NoError(t, a.db.Create(&profile).Error)
	return &profile, tokenFor(t, user, &profile.ID)
}

func (a *testApp) seedProject(t *testing.T, mentorID uuid.UUID, active bool, priceCents int64) *models.Project {
	t.Helper()
	p := models.Project{
		MentorID:      mentorID,
		Title:         "Project " + uuid.NewString()[:6],
		Slug:          uuid.NewString(),
		Description:   "Ship a production service",
		Category:      "TECHNOLOGY",
		Purposes:      []string{"CAREER"},
		Difficulty:    "INTERMEDIATE",
		DurationWeeks: 6,
		PriceCents:    priceCents,
		Currency:      "usd",
		MaxStudents:   3,
		IsActive:      active,
	}
	require.NoError(t, a.db.Create(&p).Error)
	return &p
}

func ids(items []map[string]interface{}) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i], _ = item["id"].(string)
	}
	return out
}
