package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sementes-play/config"
	"sementes-play/events"
	"sementes-play/handlers"
	"sementes-play/models"
	"sementes-play/services"
	"sementes-play/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}
	logr := utils.NewLogger(cfg.LogLevel)

	// Money goes out as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logr.Fatal("failed to connect to database: ", err)
	}

	if err := models.Migrate(db); err != nil {
		logr.Fatal("failed to migrate database: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher events.Publisher = &events.Fallback{Log: logr}
	if cfg.AMQPURL != "" {
		producer, err := events.NewProducer(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			logr.WithError(err).Warn("⚠️  RabbitMQ unavailable, domain events will only be logged")
		} else {
			publisher = producer
		}
	}
	defer publisher.Close()

	var archive utils.ReportArchive = utils.NoopArchive{}
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Archive(ctx, cfg.CloudflareAccountID, cfg.R2AccessKeyID, cfg.R2AccessKeySecret, cfg.R2Bucket)
		if err != nil {
			logr.Fatal("failed to initialize R2 client: ", err)
		}
		archive = r2
	}

	ledger := services.NewFundLedger(db, logr)
	repasseService := services.NewRepasseService(db, ledger, logr)
	rankingService := services.NewRankingService(db, publisher, logr)
	auditJob := &services.FundAuditJob{
		Ledger:    ledger,
		DB:        db,
		Events:    publisher,
		Archive:   archive,
		AdminRole: cfg.AdminRole,
		Log:       logr,
	}

	var sched gocron.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = services.StartScheduler(services.Schedules{
			FundIntegrity: cfg.FundIntegritySchedule,
			Levels:        cfg.LevelsSchedule,
		}, auditJob, rankingService, logr)
		if err != nil {
			logr.Fatal("failed to start scheduler: ", err)
		}
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	allowedOrigins := strings.Join(cfg.AllowedOriginsList(), ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	gates := handlers.NewGates(cfg, logr)
	handlers.SetupHealthRoutes(app)
	handlers.SetupFundRoutes(app, gates, ledger, auditJob, repasseService)
	handlers.SetupRankingRoutes(app, gates, rankingService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Errorf("Server error: %v", err)
		}
	}()

	logr.Infof("✅ Server running on http://localhost:%s", cfg.Port)
	logr.Infof("✅ CORS configured for origins: %s", allowedOrigins)
	if sched != nil {
		logr.Info("✅ Scheduler running (fund integrity, creator levels)")
	}

	<-ctx.Done()
	logr.Info("Shutting down server...")

	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			logr.WithError(err).Warn("scheduler shutdown")
		}
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logr.WithError(err).Warn("server shutdown")
	}
}
