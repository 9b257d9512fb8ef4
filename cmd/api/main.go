package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edusubmit-api/internal/config"
	"github.com/noah-isme/edusubmit-api/internal/database"
	"github.com/noah-isme/edusubmit-api/internal/handler"
	"github.com/noah-isme/edusubmit-api/internal/middleware"
	"github.com/noah-isme/edusubmit-api/internal/repository"
	"github.com/noah-isme/edusubmit-api/internal/router"
	"github.com/noah-isme/edusubmit-api/internal/service"
	"github.com/noah-isme/edusubmit-api/pkg/sheets"
)

// multipart framing on top of the largest accepted file
const bodyOverheadBytes = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	var redisClient *redis.Client
	sessionRepo := repository.NewMemorySessionRepository(cfg.SessionTTL)
	if cfg.SessionStore() == "redis" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		sessionRepo = repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL)
	}

	roster, err := repository.NewRosterRepository(cfg.RosterPath)
	if err != nil {
		log.Fatalf("failed to load roster: %v", err)
	}

	sheetsClient, err := sheets.New(sheets.Config{URL: cfg.ScriptURL, Timeout: cfg.ScriptTimeout}, logger)
	if err != nil {
		log.Fatalf("failed to create sheets client: %v", err)
	}

	validate := service.NewValidator(validator.New(validator.WithRequiredStructEnabled()))
	sanitizer := service.NewTextSanitizer()
	encoder := service.NewFileEncoder(cfg.UploadMaxMB, cfg.UploadAllowedExt, logger)

	sessionService := service.NewSessionService(sessionRepo, cfg.TeacherPassword, logger)
	studentForms := service.NewStudentFormService(sessionService, roster, encoder, sanitizer, logger)
	teacherForms := service.NewTeacherFormService(sessionService, roster, encoder, sanitizer, logger)
	submissionService := service.NewSubmissionService(sessionService, sheetsClient, validate, sanitizer, logger)
	gradingService := service.NewGradingService(sessionService, sheetsClient, roster, sanitizer, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.UploadMaxMB*1024*1024 + bodyOverheadBytes,
	})

	middleware.Register(app, middleware.Config{
		Logger:      &logger,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		SessionHandler:     handler.NewSessionHandler(sessionService, validate, logger),
		ReferenceHandler:   handler.NewReferenceHandler(roster),
		StudentFormHandler: handler.NewStudentFormHandler(studentForms, submissionService, validate, logger),
		TeacherFormHandler: handler.NewTeacherFormHandler(teacherForms, submissionService, logger),
		GradingHandler:     handler.NewGradingHandler(gradingService, logger),
		SessionMiddleware: middleware.Session(middleware.SessionConfig{
			Secret: cfg.SessionSecret,
			Cookie: cfg.SessionCookie,
			TTL:    cfg.SessionTTL,
			Secure: cfg.SessionSecure,
		}, sessionService, logger),
		LoginLimiter: middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
	})

	logger.Info().
		Str("address", cfg.HTTPAddress()).
		Str("session_store", cfg.SessionStore()).
		Int("subjects", len(roster.Subjects())).
		Msg("starting server")

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
