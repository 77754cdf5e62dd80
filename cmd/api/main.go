package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"piscineiro/internal/api"
	"piscineiro/internal/config"
	"piscineiro/internal/database"
	"piscineiro/internal/domain"
	"piscineiro/internal/events"
	"piscineiro/internal/export"
	"piscineiro/internal/logging"
	"piscineiro/internal/mail"
	"piscineiro/internal/metrics"
	"piscineiro/internal/repository"
	"piscineiro/internal/service"
	"piscineiro/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, sessions := initSessions(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics.Register()

	sender, err := mail.NewSender(cfg.Mail, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("init mail sender")
		return err
	}
	mailWorker := worker.NewMailWorker(db, sender, redisClient, worker.RetryPolicy{}, &logger)
	go mailWorker.Start(ctx)

	eventBus := events.NewEventBus()

	bookings := service.NewBookingService(db, eventBus, mailWorker, cfg.Booking.MaxBookingDays, cfg.Booking.NotesMaxLen, &logger)
	accounts := service.NewAccountService(db, sessions, mailWorker, eventBus, cfg.App.BaseURL, &logger)
	providers := service.NewProviderService(db, &logger)
	exporter := export.NewExporter(db, cfg.Exports.Path, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	httpServer := api.NewHTTPServer(cfg.API, bookings, accounts, providers, sessions, exporter, &logger)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().
		Int("port", cfg.API.Port).
		Str("environment", cfg.App.Environment).
		Msg("piscineiro api started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("piscineiro api stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("create exports directory")
			return err
		}
	}
	return nil
}

// initSessions builds the session store: Redis-backed with an in-memory
// fallback, or memory-only when Redis is not configured.
func initSessions(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.SessionRepository) {
	ttl := time.Duration(cfg.API.Auth.SessionTTL) * time.Second
	fallback := repository.NewMemorySessionRepository(ttl)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, sessions kept in memory")
		return nil, fallback
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable at startup, failover will retry")
	}

	primary := repository.NewRedisSessionRepository(redisClient, ttl)
	return redisClient, repository.NewFailoverSessionRepository(primary, fallback, logger)
}
