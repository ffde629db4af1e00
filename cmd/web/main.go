package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse/internal/backend"
	"pulse/internal/config"
	"pulse/internal/domain"
	"pulse/internal/events"
	"pulse/internal/export"
	"pulse/internal/imgbb"
	"pulse/internal/logging"
	"pulse/internal/metrics"
	"pulse/internal/repository"
	"pulse/internal/service"
	"pulse/internal/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// sweepInterval is how often the in-memory session store drops expired entries.
const sweepInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", "", "path to the YAML config (default $CONFIG_PATH or configs/config.yaml)")
	pflag.Parse()

	cfg, logger, closer, err := loadConfigAndLogger(*configPath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}

	sessions, ready := initSessions(ctx, cfg, redisClient, &logger)

	bus := events.NewEventBus()
	events.SubscribeAudit(bus, &logger)

	api := backend.NewClient(cfg.Backend.BaseURI, cfg.Backend.Timeout, &logger).WithRetry(backend.RetryPolicy{
		MaxRetries:   cfg.Backend.Retries,
		InitialDelay: cfg.Backend.RetryDelay,
		MaxDelay:     2 * time.Second,
	})

	server, err := web.NewServer(cfg, web.Deps{
		Backend:  api,
		Images:   imgbb.NewUploader(cfg.Images.UploadURL, cfg.Images.APIKey, cfg.Images.Timeout, &logger),
		Sessions: sessions,
		Events:   bus,
		Exporter: export.NewWorkbook(cfg.Server.Location()),
		Ready:    ready,
	}, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("create web server")
		return err
	}

	startMetrics(ctx, cfg, &logger)

	return serve(ctx, server, cfg, &logger)
}

func loadConfigAndLogger(configPath string) (*config.Config, zerolog.Logger, io.Closer, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
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
	logger := baseLogger.With().Str("component", "web-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, sessions are kept in memory")
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, sessions fall back to memory until it recovers")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

// initSessions builds the session store: Redis with an in-memory fallback
// when Redis is configured, memory alone otherwise.
func initSessions(ctx context.Context, cfg *config.Config, client *redis.Client, logger *zerolog.Logger) (*service.SessionService, func(context.Context) error) {
	memory := repository.NewMemorySessionRepository(cfg.Session.TTL)
	go sweep(ctx, memory)

	var repo domain.SessionRepository = memory
	var ready func(context.Context) error
	if client != nil {
		repo = repository.NewFailoverSessionRepository(
			repository.NewRedisSessionRepository(client, cfg.Session.TTL), memory, logger)
		ready = func(ctx context.Context) error { return repository.Ping(ctx, client) }
	}

	svc := service.NewSessionService(repo, cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow, logger)
	return svc, ready
}

func sweep(ctx context.Context, memory *repository.MemorySessionRepository) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			memory.Sweep()
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, server *web.Server, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info().
		Int("http_port", cfg.Server.Port).
		Str("backend", cfg.Backend.BaseURI).
		Str("time_zone", cfg.Server.Location().String()).
		Msg("web server started")

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("web server stopped")
			return err
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("web server shutdown")
	}

	logger.Info().Msg("web server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
