package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	config "github.com/mentorhub/marketplace/configs"
	"github.com/mentorhub/marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func TestSeedAdmin(t *testing.T) {
	db := openTestDB(t)
	cfg := &config.AppConfig{AdminEmail: "admin@mentorhub.test", AdminPassword: "s3cret!", AdminFullName: "Admin User"}

	require.NoError(t, SeedAdmin(db, cfg))
	require.NoError(t, SeedAdmin(db, cfg))

	var admins []models.User
	require.NoError(t, db.Where("email = ?", cfg.AdminEmail).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, models.RoleAdmin, admins[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].Password), []byte("s3cret!")))
}

func TestSeedAdmin_SkipsWithoutCredentials(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, SeedAdmin(db, &config.AppConfig{}))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSeedCategories_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, SeedCategories(db))
	require.NoError(t, SeedCategories(db))

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Equal(t, int64(len(defaultCategories)), count)

	var tech models.Category
	require.NoError(t, db.First(&tech, "slug = ?", "technology").Error)
	assert.Equal(t, "Technology", tech.Name)
}
