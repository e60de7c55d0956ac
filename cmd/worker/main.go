package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/mseiser/SelfMemo2/internal/config"
	"github.com/mseiser/SelfMemo2/internal/database"
	"github.com/mseiser/SelfMemo2/internal/logger"
	"github.com/mseiser/SelfMemo2/internal/mailer"
	"github.com/mseiser/SelfMemo2/internal/repositories"
	"github.com/mseiser/SelfMemo2/internal/services"
	"github.com/mseiser/SelfMemo2/internal/tasks"
	"go.uber.org/zap"
)

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

	logger.Logger.Info("Starting SelfMemo Worker")

	// Connect to database
	db, err := database.Open(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Connect to Redis for the due index
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Initialize repositories
	reminderRepo := repositories.NewReminderRepository(db)
	scheduledRepo := repositories.NewScheduledReminderRepository(db)
	userRepo := repositories.NewUserRepository(db)
	templateRepo := repositories.NewEmailTemplateRepository(db)
	dueIndex := repositories.NewDueIndex(rdb)

	// Initialize services
	scheduledService := services.NewScheduledReminderService(scheduledRepo, dueIndex, cfg.Location, logger.Logger)
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

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Dispatch.Workers,
			Queues: map[string]int{
				tasks.Queue: 1,
			},
		},
	)

	// Register task handlers
	worker := NewWorker(dispatchService, logger.Logger)
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeFire, worker.HandleFire)
	mux.HandleFunc(tasks.TypeDispatch, worker.HandleDispatch)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}
