package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/mseiser/SelfMemo2/docs"
	"github.com/mseiser/SelfMemo2/internal/auth"
	"github.com/mseiser/SelfMemo2/internal/config"
	"github.com/mseiser/SelfMemo2/internal/database"
	"github.com/mseiser/SelfMemo2/internal/handlers"
	"github.com/mseiser/SelfMemo2/internal/logger"
	"github.com/mseiser/SelfMemo2/internal/mailer"
	"github.com/mseiser/SelfMemo2/internal/middleware"
	"github.com/mseiser/SelfMemo2/internal/repositories"
	"github.com/mseiser/SelfMemo2/internal/services"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title SelfMemo Reminder API
// @version 1.0
// @description API for managing reminders and dispatching their notifications

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key of the external minute clock
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting SelfMemo API")

	// Connect to database
	db, err := database.Open(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db, cfg.Database.Driver, database.MigrationsDir()); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	tokenGenerator := auth.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// Initialize repositories
	reminderRepo := repositories.NewReminderRepository(db)
	scheduledRepo := repositories.NewScheduledReminderRepository(db)
	userRepo := repositories.NewUserRepository(db)
	templateRepo := repositories.NewEmailTemplateRepository(db)
	dueIndex := repositories.NewDueIndex(rdb)

	// Initialize services
	scheduledService := services.NewScheduledReminderService(scheduledRepo, dueIndex, cfg.Location, logger.Logger)
	reminderService := services.NewReminderService(reminderRepo, scheduledService, cfg.Location, logger.Logger)
	notificationService := services.NewNotificationService(
		userRepo,
		templateRepo,
		reminderRepo,
		mailer.NewSMTPMailer(cfg.SMTP),
		cfg.AppURL,
		cfg.Location,
		logger.Logger,
	)
	dispatchService := services.NewDispatchService(
		reminderRepo,
		scheduledRepo,
		scheduledService,
		notificationService,
		dueIndex,
		services.DispatchOptions{
			Workers:  cfg.Dispatch.Workers,
			CatchUp:  cfg.Dispatch.CatchUp,
			Location: cfg.Location,
		},
		logger.Logger,
	)
	statisticService := services.NewStatisticService(reminderRepo, scheduledRepo, cfg.Location, logger.Logger)
	calendarService := services.NewCalendarService(scheduledRepo, logger.Logger)

	// Initialize handlers
	reminderHandler := handlers.NewReminderHandler(reminderService, logger.Logger)
	triggerHandler := handlers.NewTriggerHandler(dispatchService, logger.Logger)
	statisticHandler := handlers.NewStatisticHandler(statisticService, logger.Logger)
	calendarHandler := handlers.NewCalendarHandler(calendarService, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(logger.Logger))
	r.Use(middleware.RecoveryMiddleware(logger.Logger))
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(middleware.MaxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// External minute clock (API key protected)
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyMiddleware(cfg.APIKey))
			triggerHandler.RegisterRoutes(r)
		})

		// User endpoints (JWT protected)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokenGenerator, false))
			reminderHandler.RegisterRoutes(r)
			statisticHandler.RegisterRoutes(r)
		})

		// Calendar clients cannot send headers, so the feed also accepts the token as query parameter
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokenGenerator, true))
			calendarHandler.RegisterRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
