package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"weeksuntil/internal/api"
	"weeksuntil/internal/bot"
	"weeksuntil/internal/config"
	"weeksuntil/internal/database"
	"weeksuntil/internal/export"
	"weeksuntil/internal/logging"
	"weeksuntil/internal/metrics"
	"weeksuntil/internal/models"
	"weeksuntil/internal/repository"
	"weeksuntil/internal/scheduler"
	"weeksuntil/internal/service"
	"weeksuntil/internal/telegram"

	"github.com/prometheus/client_golang/prometheus/promhttp"
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
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("database initialization failed")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, states := initStateRepository(ctx, cfg, logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	users := service.NewUserService(db, cfg, logger)
	gridSvc := service.NewGridService(db, logger)
	exporter := export.NewGenerator(db, logger)

	// The single-admin invariant is reconciled at startup too, so a
	// cohort created before this rule gets an admin.
	if err := users.ReconcileAdmin(ctx); err != nil {
		logger.Error().Err(err).Msg("admin reconciliation failed")
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}

	if cfg.API.Enabled {
		apiServer := api.NewHTTPServer(cfg, users, gridSvc, exporter, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("api server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	return startBot(ctx, cfg, db, users, gridSvc, states, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create exports directory")
		return err
	}
	return nil
}

func initStateRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, repository.StateRepository) {
	fallback := repository.NewMemoryStateRepository(models.DefaultStateTTL)

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-memory chat state")
		return nil, fallback
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, failover will use memory")
	}

	primary := repository.NewRedisStateRepository(redisClient, models.DefaultStateTTL)
	return redisClient, repository.NewFailoverStateRepository(primary, fallback, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	users *service.UserService,
	gridSvc *service.GridService,
	states repository.StateRepository,
	logger *zerolog.Logger,
) error {
	client, err := telegram.NewClient(cfg.Telegram, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create telegram client")
		return err
	}

	if cfg.Reminder.Enabled {
		weekday, err := config.ParseWeekday(cfg.Reminder.Weekday)
		if err != nil {
			return err
		}
		sched := scheduler.New(db, client, weekday, cfg.Reminder.Hour, logger)
		go sched.Run(ctx)
	}

	telegramBot := bot.NewBot(client, users, gridSvc, states, cfg, logger)

	logger.Info().Msg("service started")
	telegramBot.Start(ctx)

	logger.Info().Msg("shutdown complete")
	return nil
}
