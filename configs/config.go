package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	PublishModeImmediate = "immediate"
	PublishModeReview    = "review"
)

// AppConfig is the typed view over the process environment.
type AppConfig struct {
	AppName     string `mapstructure:"APP_NAME"`
	Environment string `mapstructure:"APP_ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Port        string `mapstructure:"PORT"`
	BaseURL     string `mapstructure:"BASE_URL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	DefaultCommissionRate float64 `mapstructure:"DEFAULT_COMMISSION_RATE"`
	ListingPublishMode    string  `mapstructure:"LISTING_PUBLISH_MODE"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	AdminFullName string `mapstructure:"ADMIN_FULL_NAME"`

	CloudinaryURL   string `mapstructure:"CLOUDINARY_URL"`
	BrevoAPIKey     string `mapstructure:"BREVO_API_KEY"`
	EmailSender     string `mapstructure:"EMAIL_SENDER"`
	EmailSenderName string `mapstructure:"EMAIL_SENDER_NAME"`

	RatingCron string `mapstructure:"RATING_CRON"`
}

var loadEnvOnce sync.Once

func loadDotEnv() {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("Warning: .env file not found, reading from system environment variables")
		}
	})
}

// Config returns a single raw environment value.
func Config(key string) string {
	loadDotEnv()
	return os.Getenv(key)
}

// Load reads the environment into an AppConfig, applying defaults for anything unset.
func Load() (*AppConfig, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(strings.ToUpper(key))
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.ListingPublishMode = strings.ToLower(strings.TrimSpace(cfg.ListingPublishMode))
	if cfg.ListingPublishMode != PublishModeReview {
		cfg.ListingPublishMode = PublishModeImmediate
	}
	if cfg.DefaultCommissionRate < 0 || cfg.DefaultCommissionRate >= 1 {
		log.Printf("Warning: DEFAULT_COMMISSION_RATE %v out of range, using 0.085", cfg.DefaultCommissionRate)
		cfg.DefaultCommissionRate = 0.085
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "Mentorhub")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("DEFAULT_COMMISSION_RATE", 0.085)
	v.SetDefault("LISTING_PUBLISH_MODE", PublishModeImmediate)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_FULL_NAME", "Admin User")
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("BREVO_API_KEY", "")
	v.SetDefault("EMAIL_SENDER", "")
	v.SetDefault("EMAIL_SENDER_NAME", "")
	v.SetDefault("RATING_CRON", "0 * * * *")
}
