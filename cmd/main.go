package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtside/community-league/config"
	"github.com/courtside/community-league/db"
	"github.com/courtside/community-league/handlers"
	"github.com/courtside/community-league/live"
	"github.com/courtside/community-league/repositories"
	"github.com/courtside/community-league/routes"
	"github.com/courtside/community-league/services"
	"github.com/courtside/community-league/storage"
	"github.com/courtside/community-league/tasks"
	"github.com/go-co-op/gocron/v2"
)

const (
	tournamentSchedulerInterval = 30 * time.Second
	promoSchedulerInterval      = 5 * time.Minute
	taskQueueSize               = 32
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Фоновая очередь отложенных задач
	taskQueue, err := tasks.NewQueue(taskQueueSize, logger)
	if err != nil {
		logger.Error("failed to start task queue", slog.Any("error", err))
		os.Exit(1)
	}
	defer taskQueue.Close()

	// Инициализация репозиториев
	txRunner := repositories.NewTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	centerRepo := repositories.NewPostgresCenterRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	statRepo := repositories.NewPostgresStatRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	tournamentBookingRepo := repositories.NewPostgresTournamentBookingRepository(dbConn)
	tournamentMatchRepo := repositories.NewPostgresTournamentMatchRepository(dbConn)
	promoRepo := repositories.NewPostgresPromoRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo, emailService, taskQueue, cfg.PublicURL)
	userService := services.NewUserService(userRepo, cloudflareUploader)
	centerService := services.NewCenterService(centerRepo, txRunner, cloudflareUploader, logger)
	matchService := services.NewMatchService(
		matchRepo,
		centerRepo,
		statRepo,
		userRepo,
		txRunner,
		centerService,
		taskQueue,
		emailService,
		wsHub,
	)
	statService := services.NewStatService(statRepo, matchRepo, tournamentMatchRepo, teamRepo)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		tournamentBookingRepo,
		teamRepo,
		tournamentMatchRepo,
		statRepo,
		userRepo,
		txRunner,
		wsHub,
	)
	promoService := services.NewPromoService(promoRepo)
	logger.Info("Services initialized")

	// Планировщик периодических задач
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(tournamentSchedulerInterval),
		gocron.NewTask(func() {
			advanced, err := tournamentService.AutoAdvanceStatuses(context.Background())
			if err != nil {
				logger.Error("scheduler: tournament status advance failed", slog.Any("error", err))
				return
			}
			if advanced > 0 {
				logger.Info("scheduler: tournaments advanced", slog.Int64("count", advanced))
			}
		}),
	)
	if err != nil {
		logger.Error("failed to schedule tournament status job", slog.Any("error", err))
		os.Exit(1)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(promoSchedulerInterval),
		gocron.NewTask(func() {
			deactivated, err := promoService.DeactivateExpired(context.Background())
			if err != nil {
				logger.Error("scheduler: promo deactivation failed", slog.Any("error", err))
				return
			}
			if deactivated > 0 {
				logger.Info("scheduler: expired promos deactivated", slog.Int64("count", deactivated))
			}
		}),
	)
	if err != nil {
		logger.Error("failed to schedule promo deactivation job", slog.Any("error", err))
		os.Exit(1)
	}

	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to shut down scheduler", slog.Any("error", err))
		}
	}()
	logger.Info("Scheduler started")

	// Инициализация обработчиков HTTP
	router := routes.InitRoutes(routes.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		User:       handlers.NewUserHandler(userService),
		Center:     handlers.NewCenterHandler(centerService),
		Match:      handlers.NewMatchHandler(matchService),
		Stat:       handlers.NewStatHandler(statService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Promo:      handlers.NewPromoHandler(promoService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub),
	}, cfg.JWTSecretKey)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if err := server.Close(); err != nil {
				logger.Error("forced shutdown failed", slog.Any("error", err))
			}
		}
	}

	logger.Info("server stopped")
}
