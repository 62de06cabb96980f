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

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Dosada05/song-bracket/brackets"
	"github.com/Dosada05/song-bracket/cache"
	"github.com/Dosada05/song-bracket/config"
	"github.com/Dosada05/song-bracket/db"
	"github.com/Dosada05/song-bracket/handlers"
	"github.com/Dosada05/song-bracket/metrics"
	"github.com/Dosada05/song-bracket/middleware"
	"github.com/Dosada05/song-bracket/repositories"
	"github.com/Dosada05/song-bracket/repositories/docstore"
	"github.com/Dosada05/song-bracket/repositories/memstore"
	api "github.com/Dosada05/song-bracket/routes"
	"github.com/Dosada05/song-bracket/services"
	"github.com/Dosada05/song-bracket/storage"
)

const (
	requestTimeout     = 30 * time.Second
	limiterCleanupTick = time.Minute
	shutdownTimeout    = 15 * time.Second
)

// @title			Song Bracket API
// @version		1.0
// @description	Single-elimination song tournament with class voting.
// @BasePath		/api/v1
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", cfg.StoreDriver),
	)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, AttachStacktrace: true}); err != nil {
			logger.Error("failed to initialize sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
		logger.Info("sentry initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		} else {
			logger.Info("store closed")
		}
	}()

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Выгрузка сеток в Cloudflare R2 (опционально)
	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("bracket export disabled: R2 is not configured")
	}

	// Ограничение частоты голосов
	voteLimiter, closeLimiter, err := newVoteLimiter(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize vote rate limiter", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeLimiter()

	// Инициализация сервисов
	authService, err := services.NewAuthService(services.AuthConfig{
		AdminPassword: cfg.AdminPassword,
		SessionSecret: cfg.SessionSecret,
		SessionTTL:    cfg.SessionTTL,
	}, nil)
	if err != nil {
		logger.Error("failed to initialize auth service", slog.Any("error", err))
		os.Exit(1)
	}
	adminService := services.NewBracketAdminService(store, logger, nil)
	viewService := services.NewViewService(store, logger)
	exportService := services.NewExportService(uploader, viewService, adminService, logger, nil)
	songService := services.NewSongService(store, logger, nil)
	classService := services.NewClassService(store, logger, nil)
	bracketService := services.NewBracketService(store, brackets.NewSingleEliminationGenerator(), exportService, m, logger)
	matchService := services.NewMatchService(store, exportService, m, logger, nil)
	voteService := services.NewVoteService(store, m, logger, nil)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:    handlers.NewAuthHandler(authService, cfg.CookieSecure),
		Songs:   handlers.NewSongHandler(songService, adminService),
		Classes: handlers.NewClassHandler(classService),
		Bracket: handlers.NewBracketHandler(bracketService, exportService, adminService),
		Admin:   handlers.NewBracketAdminHandler(adminService),
		Matches: handlers.NewMatchHandler(matchService, voteService, adminService),
		Votes:   handlers.NewVoteHandler(voteService, adminService),
		Views:   handlers.NewViewHandler(viewService, adminService),
		Health:  handlers.NewHealthHandler(store),
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, api.Options{
		Sessions:       authService,
		VoteLimiter:    voteLimiter,
		Metrics:        m,
		Gatherer:       registry,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout: requestTimeout,
		SentryEnabled:  cfg.SentryDSN != "",
		TrustProxy:     cfg.TrustProxy,
		Logger:         logger,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			return
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, dbConn); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		logger.Info("database connection established, migrations applied")
		return repositories.NewPostgresStore(dbConn, logger), nil
	case config.StoreDriverFirestore:
		store, err := docstore.Open(ctx, docstore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("firestore client initialized", slog.String("project", cfg.FirestoreProjectID))
		return store, nil
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store: data is lost on restart")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// newVoteLimiter: Redis, если задан REDIS_URL, иначе лимитер в памяти процесса.
func newVoteLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (middleware.Limiter, func(), error) {
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("redis vote rate limiter initialized", slog.Int("per_minute", cfg.VoteRateLimit))
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", slog.Any("error", err))
			}
		}
		return middleware.NewRedisLimiter(client, cfg.VoteRateLimit, nil), closeFn, nil
	}

	limiter := middleware.NewMemoryLimiter(cfg.VoteRateLimit, nil)
	go limiter.RunCleanup(ctx, limiterCleanupTick)
	logger.Info("in-memory vote rate limiter initialized", slog.Int("per_minute", cfg.VoteRateLimit))
	return limiter, func() {}, nil
}
