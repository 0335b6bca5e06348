// Package main is the entrypoint for the walletshop API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/walletshop/walletshop/internal/cache"
	"github.com/walletshop/walletshop/internal/config"
	"github.com/walletshop/walletshop/internal/database"
	"github.com/walletshop/walletshop/internal/handler"
	"github.com/walletshop/walletshop/internal/mail"
	"github.com/walletshop/walletshop/internal/metrics"
	"github.com/walletshop/walletshop/internal/middleware"
	"github.com/walletshop/walletshop/internal/notify"
	"github.com/walletshop/walletshop/internal/push"
	"github.com/walletshop/walletshop/internal/repository"
	"github.com/walletshop/walletshop/internal/server"
	"github.com/walletshop/walletshop/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()

	if os.Getenv("APP_ENV") == "" || os.Getenv("APP_ENV") == "development" {
		if err := config.LoadDotEnv(); err != nil {
			slog.Error("failed to load .env", "error", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.MigrateOnStart {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error("failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheus(registry)

	dispatcher := newDispatcher(cfg, repo, cacheClient, logger, recorder)
	sender := newMailSender(cfg, logger, recorder)

	discountService := service.NewDiscountService(repo, cacheClient, cfg.DiscountCacheTTL, logger, recorder)
	userService := service.NewUserService(repo, logger)

	if cfg.AdminKeyHash == "" {
		logger.Warn("ADMIN_KEY_HASH is not set, admin routes will reject every request")
	}

	router := handler.NewRouter(handler.RouterConfig{
		Logger:        logger,
		Health:        handler.NewHealthHandler(repo, cacheClient),
		Notifications: handler.NewNotificationHandler(dispatcher, logger),
		Email:         handler.NewEmailHandler(sender),
		Discounts:     handler.NewDiscountHandler(discountService, logger),
		Users:         handler.NewUserHandler(userService, logger),
		Admin:         handler.NewAdminHandler(discountService, userService, repo, version, logger),
		Metrics:       metrics.Handler(registry),
		AdminAuth: middleware.AdminAuthConfig{
			Logger:  logger,
			Cache:   cacheClient,
			KeyHash: cfg.AdminKeyHash,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: cacheClient,
			Enabled: cfg.RateLimitEnabled,
			IPRPS:   cfg.RateLimitRPS,
			IPBurst: cfg.RateLimitBurst,
		},
		CORS:          middleware.DefaultCORSConfig(cfg.AllowedOrigins()),
		Security:      middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodyBytes:  cfg.MaxRequestBodySize,
		TrustForwards: true,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Stopped in reverse: dispatcher drains before its stores close.
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})
	srv.OnShutdown("dispatcher", dispatcher.Wait)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"version", version,
		"push_configured", cfg.PushConfigured(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newDispatcher(cfg *config.Config, repo *repository.Repository, cacheClient *cache.Cache, logger *slog.Logger, recorder metrics.Recorder) *notify.Dispatcher {
	// Left nil when unconfigured so sends fail with push.ErrNotConfigured.
	var provider push.Provider
	if cfg.PushConfigured() {
		provider = push.NewOneSignalClient(push.OneSignalConfig{
			AppID:         cfg.OneSignalAppID,
			APIKey:        cfg.OneSignalAPIKey,
			APIURL:        cfg.OneSignalAPIURL,
			RatePerSecond: cfg.PushRatePerSecond,
		}, push.NewHTTPClient())
	} else {
		logger.Warn("push provider is not configured, notification sends will fail")
	}

	var opts []notify.Option
	if cfg.NotifyAuditEnabled {
		opts = append(opts, notify.WithAuditor(notify.NewStreamAuditor(cacheClient.Client(), logger, recorder)))
	}
	return notify.NewDispatcher(provider, repo, logger, recorder, opts...)
}

func newMailSender(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) *mail.Sender {
	var opts []mail.Option
	if cfg.EmailSanitizeHTML {
		opts = append(opts, mail.WithSanitizer(bluemonday.UGCPolicy()))
	}
	transport := mail.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPTimeout)
	return mail.NewSender(transport, logger, recorder, opts...)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "walletshop")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
