package main

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/mentorhub/marketplace/configs"
	"github.com/mentorhub/marketplace/database"
	"github.com/mentorhub/marketplace/jobs"
	"github.com/mentorhub/marketplace/logger"
	"github.com/mentorhub/marketplace/metrics"
	"github.com/mentorhub/marketplace/notifications"
	"github.com/mentorhub/marketplace/payments"
	"github.com/mentorhub/marketplace/routes"
	"github.com/mentorhub/marketplace/services"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.Init(logger.LogConfig{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.AppName,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	metrics.Register()

	if err := database.ConnectDB(cfg); err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(database.DB); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}
	if err := database.SeedAdmin(database.DB, cfg); err != nil {
		log.Error("admin seed failed", zap.Error(err))
	}
	if err := database.SeedCategories(database.DB); err != nil {
		log.Error("category seed failed", zap.Error(err))
	}

	notifications.InitEmailService(notifications.BrevoConfig{
		APIKey:      cfg.BrevoAPIKey,
		SenderEmail: cfg.EmailSender,
		SenderName:  cfg.EmailSenderName,
	}, log)

	var mailer services.Mailer
	if notifications.EmailClient != nil {
		mailer = notifications.EmailClient
	}

	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set, payment provider calls will fail")
	}
	gateway := payments.NewStripeGateway(payments.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
	}, log)

	err = services.Init(services.Deps{
		DB:                    database.DB,
		Log:                   log,
		Gateway:               gateway,
		Mailer:                mailer,
		DefaultCommissionRate: cfg.DefaultCommissionRate,
		PublishMode:           cfg.ListingPublishMode,
		BaseURL:               cfg.BaseURL,
	})
	if err != nil {
		log.Fatal("service wiring failed", zap.Error(err))
	}
	log.Info("listing publish mode", zap.String("mode", cfg.ListingPublishMode))

	c := cron.New()
	if _, err := c.AddFunc(cfg.RatingCron, jobs.RefreshMentorRatings); err != nil {
		log.Fatal("invalid RATING_CRON", zap.String("schedule", cfg.RatingCron), zap.Error(err))
	}
	if _, err := c.AddFunc("@hourly", jobs.ExpirePendingEnrollments); err != nil {
		log.Fatal("failed to schedule enrollment expiry", zap.Error(err))
	}
	c.Start()
	defer c.Stop()
	log.Info("cron jobs scheduled")

	app := fiber.New(fiber.Config{
		AppName:       cfg.AppName,
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}

			logger.FromContext(c.UserContext()).Error("unhandled error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.String("method", c.Method()),
			)
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Stripe-Signature, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, X-Request-ID",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.Middleware())
	app.Use(metrics.Middleware())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to the " + cfg.AppName + " API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	routes.Register(app)

	log.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server failed to start", zap.Error(err))
	}
}
