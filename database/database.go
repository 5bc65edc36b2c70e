package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	config "github.com/mentorhub/marketplace/configs"
	"github.com/mentorhub/marketplace/logger"
	"github.com/mentorhub/marketplace/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDB(cfg *config.AppConfig) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	level := gormlogger.Warn
	if cfg.Environment == "development" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.NewGormLogger(level, 200*time.Millisecond),
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	DB = db
	zap.L().Info("database connected")
	return nil
}

// Models lists every table the application owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.MentorProfile{},
		&models.StudentProfile{},
		&models.Category{},
		&models.CategorySuggestion{},
		&models.Project{},
		&models.Enrollment{},
		&models.Review{},
		&models.JournalPost{},
		&models.JournalPostView{},
		&models.MentorSubscription{},
		&models.SystemConfig{},
		&models.AuditEvent{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	zap.L().Info("database migration successful")
	return nil
}

func SeedAdmin(db *gorm.DB, cfg *config.AppConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		zap.L().Warn("admin credentials not configured, skipping admin seed")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", cfg.AdminEmail).Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		zap.L().Info("admin user already exists")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Name:     cfg.AdminFullName,
		Email:    cfg.AdminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	zap.L().Info("admin user seeded", zap.String("email", cfg.AdminEmail))
	return nil
}

var defaultCategories = []struct {
	Name, Description, Icon, Color string
}{
	{"Technology", "Software, data and infrastructure projects", "code", "#2563eb"},
	{"Business", "Entrepreneurship, marketing and operations", "briefcase", "#16a34a"},
	{"Design", "Product, graphic and interaction design", "palette", "#db2777"},
	{"Academic", "Research, writing and exam preparation", "book", "#7c3aed"},
	{"Language", "Spoken and written language practice", "languages", "#ea580c"},
	{"Creative", "Music, film, writing and the arts", "sparkles", "#ca8a04"},
}

// SeedCategories inserts the built-in categories that are missing.
func SeedCategories(db *gorm.DB) error {
	for _, c := range defaultCategories {
		description, icon, color := c.Description, c.Icon, c.Color
		category := models.Category{
			Name:        c.Name,
			Slug:        slug.Make(c.Name),
			Description: &description,
			Icon:        &icon,
			Color:       &color,
		}
		if err := db.Where(models.Category{Slug: category.Slug}).FirstOrCreate(&category).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	return nil
}
