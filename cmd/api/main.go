// @title HabitStreak API
// @version 1.0
// @description Habits with daily completions, streaks and a public feed
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer <token>"
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/habitstreak/docs"
	"github.com/xyz-asif/habitstreak/internal/config"
	"github.com/xyz-asif/habitstreak/internal/database"
	"github.com/xyz-asif/habitstreak/internal/features/auth"
	"github.com/xyz-asif/habitstreak/internal/features/habits"
	"github.com/xyz-asif/habitstreak/internal/features/users"
	"github.com/xyz-asif/habitstreak/internal/jobs"
	"github.com/xyz-asif/habitstreak/internal/pkg/cache"
	"github.com/xyz-asif/habitstreak/internal/pkg/cloudinary"
	"github.com/xyz-asif/habitstreak/internal/pkg/events"
	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
	"github.com/xyz-asif/habitstreak/internal/pkg/mailer"
	"github.com/xyz-asif/habitstreak/internal/pkg/ratelimit"
	"github.com/xyz-asif/habitstreak/internal/routes"
)

const reminderSchedule = "* * * * *"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := routes.Deps{Config: cfg}

	var store habits.Store
	if cfg.UsesMemoryStore() {
		logger.Warn("STORE=memory: habits are kept in process memory and lost on restart")
		store = habits.NewMemoryStore()
	} else {
		db, err := database.Connect(ctx, database.Config{
			URI:     cfg.MongoURI,
			DBName:  cfg.MongoDB,
			Timeout: cfg.MongoTimeout(),
		})
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				logger.Error("MongoDB disconnect: %v", err)
			}
		}()
		logger.Info("Connected to MongoDB database %s", cfg.MongoDB)

		store = habits.NewRepository(db.Database)
		deps.Profiles = users.NewRepository(db.Database)
		deps.Health = db.HealthCheck
	}

	var habitCache habits.Cache
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("Redis unavailable, featured list will not be cached: %v", err)
		} else {
			defer client.Close()
			habitCache = cache.New(client, "habitstreak:")
		}
	}

	var publisher habits.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		p := events.NewKafkaPublisher(events.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		defer func() {
			if err := p.Close(); err != nil {
				logger.Error("Kafka writer close: %v", err)
			}
		}()
		publisher = p
	}

	service := habits.NewService(store, habitCache, publisher, habits.ServiceConfig{
		Location:         cfg.Location(),
		FeaturedCount:    cfg.FeaturedCount,
		FeaturedCacheTTL: cfg.FeaturedCacheTTL(),
	})
	deps.Habits = service

	verifier, dev, err := auth.BuildVerifier(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to set up token verification: %v", err)
	}
	if len(verifier) == 0 {
		logger.Fatal("No token verifier configured")
	}
	deps.Verifier = verifier
	deps.Dev = dev

	cld, err := cloudinary.NewService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, "habits")
	switch {
	case errors.Is(err, cloudinary.ErrNotConfigured):
		logger.Info("Cloudinary not configured, image uploads disabled")
	case err != nil:
		logger.Warn("Cloudinary disabled: %v", err)
	default:
		deps.Uploader = cld
	}

	if cfg.RateLimitPerMinute > 0 {
		deps.Limiter = ratelimit.New(cfg.RateLimitPerMinute, time.Minute)
		deps.Limiter.StartCleanup(ctx, time.Minute)
	}

	scheduler := jobs.NewScheduler(cfg.Location())
	if err := scheduler.Add(cfg.StreakRefreshSchedule, "streak-refresh", jobs.NewStreakRefresher(service)); err != nil {
		logger.Fatal("Invalid STREAK_REFRESH_SCHEDULE: %v", err)
	}
	if cfg.RemindersEnabled && cfg.SMTPHost != "" {
		m, err := mailer.New(mailer.Config{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			FromEmail: cfg.SMTPFromEmail,
			FromName:  cfg.SMTPFromName,
		})
		if err != nil {
			logger.Fatal("Failed to set up mailer: %v", err)
		}
		if err := scheduler.Add(reminderSchedule, "reminders", jobs.NewReminderDispatcher(service, m, cfg.FrontendURL)); err != nil {
			logger.Fatal("Failed to schedule reminders: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
