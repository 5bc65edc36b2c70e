package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/mentorhub/marketplace/models"
	"github.com/mentorhub/marketplace/payments/paymentstest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Every pooled connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.MentorProfile{},
		&models.StudentProfile{},
		&models.Project{},
		&models.Enrollment{},
		&models.Review{},
		&models.SystemConfig{},
		&models.AuditEvent{},
	))
	return db
}

type testEnv struct {
	db       *gorm.DB
	gateway  *paymentstest.FakeGateway
	policy   *Policy
	audit    *AuditService
	config   *SystemConfigService
	listings *ListingService
	payouts  *PayoutService
	checkout *CheckoutService
}

func newTestEnv(t *testing.T, publishMode string) *testEnv {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()

	policy, err := NewPolicy()
	require.NoError(t, err)

	gateway := paymentstest.NewFakeGateway()
	audit := NewAuditService(db, log)
	cfg := NewSystemConfigService(SystemConfigParams{DB: db, Log: log, Audit: audit, DefaultRate: DefaultCommissionRate})
	payouts := NewPayoutService(PayoutParams{DB: db, Log: log, Gateway: gateway, Policy: policy, BaseURL: "http://localhost:3000"})

	return &testEnv{
		db:      db,
		gateway: gateway,
		policy:  policy,
		audit:   audit,
		config:  cfg,
		listings: NewListingService(ListingParams{
			DB: db, Log: log, Policy: policy, Audit: audit, PublishMode: publishMode,
		}),
		payouts: payouts,
		checkout: NewCheckoutService(CheckoutParams{
			DB: db, Log: log, Gateway: gateway, Config: cfg, Payouts: payouts,
			Policy: policy, Audit: audit, BaseURL: "http://localhost:3000",
		}),
	}
}

func seedMentor(t *testing.T, db *gorm.DB, accountID string) (*models.User, *models.MentorProfile) {
	t.Helper()
	user := models.User{
		Name:     "Mentor " + uuid.NewString()[:8],
		Email:    uuid.NewString() + "@mentors.test",
		Password: "x",
		Role:     models.RoleMentor,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)

	profile := models.MentorProfile{UserID: user.ID}
	if accountID != "" {
		profile.StripeAccountID = &accountID
	}
	require.NoError(t, db.Create(&profile).Error)
	return &user, &profile
}

func seedStudent(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := models.User{
		Name:     "Student " + uuid.NewString()[:8],
		Email:    uuid.NewString() + "@students.test",
		Password: "x",
		Role:     models.RoleStudent,
		IsActive: true,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedProject(t *testing.T, db *gorm.DB, mentorID uuid.UUID, active bool, priceCents int64) *models.Project {
	t.Helper()
	p := models.Project{
		MentorID:      mentorID,
		Title:         "Project " + uuid.NewString()[:8],
		Slug:          uuid.NewString(),
		Description:   "Build something real",
		Category:      "TECHNOLOGY",
		Purposes:      []string{"CAREER"},
		Difficulty:    "BEGINNER",
		DurationWeeks: 4,
		PriceCents:    priceCents,
		Currency:      "usd",
		MaxStudents:   5,
		IsActive:      active,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Role: models.RoleAdmin}
}

func mentorActor(user *models.User, profile *models.MentorProfile) Actor {
	id := profile.ID
	return Actor{UserID: user.ID, Role: models.RoleMentor, MentorID: &id}
}

func studentActor(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: models.RoleStudent}
}

func discoverableIDs(t *testing.T, db *gorm.DB) map[uuid.UUID]bool {
	t.Helper()
	var projects []models.Project
	require.NoError(t, db.Scopes(Discoverable).Find(&projects).Error)
	ids := make(map[uuid.UUID]bool, len(projects))
	for _, p := range projects {
		ids[p.ID] = true
	}
	return ids
}
