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

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/round-submissions/config"
	"github.com/Dosada05/round-submissions/db"
	"github.com/Dosada05/round-submissions/handlers"
	"github.com/Dosada05/round-submissions/notifications"
	"github.com/Dosada05/round-submissions/repositories"
	api "github.com/Dosada05/round-submissions/routes"
	"github.com/Dosada05/round-submissions/services"
	"github.com/Dosada05/round-submissions/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("storage", cfg.StorageBackend))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(ctx, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Info("database connection established")

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	logger.Info("blob storage initialized", slog.String("backend", cfg.StorageBackend))

	// Инициализация WebSocket Hub
	hub := notifications.NewHub(logger)
	go hub.Run(ctx)
	// Websocket clients may be anonymous, so the hub only gets public events on the global channel.
	fanout := notifications.Fanout{services.PublicEventsOnly(hub)}
	if cfg.RedisAddr != "" {
		redisPub := notifications.NewRedisPublisher(notifications.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisPub.Close()
		if err := redisPub.Ping(ctx); err != nil {
			logger.Warn("redis is not reachable, publishing will keep failing until it is", slog.Any("error", err))
		}
		fanout = append(fanout, redisPub)
		logger.Info("redis publishing enabled", slog.String("addr", cfg.RedisAddr))
	}

	// Инициализация репозиториев
	fileRepo := repositories.NewPostgresFileRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	submissionRepo := repositories.NewPostgresRoundSubmissionRepository(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.TokenTTL)
	fileService := services.NewFileService(fileRepo, blobs, logger)
	ingestionService := services.NewIngestionService(
		dbConn,
		fileRepo,
		eventRepo,
		roundRepo,
		submissionRepo,
		userRepo,
		blobs,
		fanout,
		logger,
	)
	viewService := services.NewSubmissionViewService(submissionRepo)
	subscriptionService := services.NewSubscriptionService(eventRepo)

	if cfg.OrphanSweepInterval > 0 {
		sweeper := services.NewOrphanSweeper(fileRepo, blobs, cfg.OrphanGracePeriod, logger)
		go runSweeper(ctx, sweeper, cfg.OrphanSweepInterval, logger)
	}

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Handlers{
			Auth:       handlers.NewAuthHandler(authService, logger),
			Files:      handlers.NewFileHandler(fileService, ingestionService, cfg.MaxUploadBytes, logger),
			Submission: handlers.NewSubmissionHandler(viewService, logger),
			WebSocket:  handlers.NewWebSocketHandler(hub, subscriptionService, cfg.CORSAllowedOrigins, logger),
		},
		authService,
		cfg.CORSAllowedOrigins,
		logger,
	)

	// Uploads and downloads stream whole files, so the timeouts are generous.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	return nil
}

func openBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageBackend == config.StorageS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	}
	return storage.NewLocalStore(cfg.FilesDir)
}

// runSweeper removes orphaned blobs on every tick until ctx is done.
func runSweeper(ctx context.Context, sweeper *services.OrphanSweeper, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("orphan blob sweeper started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sweeper.Sweep(ctx)
			if err != nil {
				logger.Error("orphan sweep failed", slog.Any("error", err))
				continue
			}
			logger.Info("orphan sweep finished", slog.Int("removed", removed))
		}
	}
}
