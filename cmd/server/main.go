package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"bloggers-platform/internal/app"
	"bloggers-platform/internal/config"
	"bloggers-platform/internal/health"
	"bloggers-platform/internal/http/handler"
	"bloggers-platform/internal/http/middleware"
	"bloggers-platform/internal/http/router"
	"bloggers-platform/internal/mail"
	"bloggers-platform/internal/observability"
	"bloggers-platform/internal/repository"
	"bloggers-platform/internal/security"
	"bloggers-platform/internal/service"
	"bloggers-platform/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Missing .env is fine; the environment may carry everything already.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	runtime, err := observability.InitRuntime(ctx, observability.MetricsConfig{
		Enabled:        cfg.MetricsEnabled,
		LogsEnabled:    cfg.LogExportEnabled,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       cfg.OTLPInsecure,
		ServiceName:    cfg.ServiceName,
		Environment:    cfg.AppEnv,
		ExportInterval: cfg.MetricsExportInterval,
	}, logger)
	if err != nil {
		return err
	}
	if h := runtime.LogHandler(); h != nil {
		logger = slog.New(h)
		slog.SetDefault(logger)
	}

	db, err := storage.Open(cfg)
	if err != nil {
		return err
	}

	var redisClient redis.UniversalClient
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)

	var sender mail.Sender
	if cfg.MailMode == "smtp" {
		smtpAddr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
		sender = mail.NewSMTPSender(smtpAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	} else {
		sender = mail.LogSender{}
	}

	var unknownIDs service.UnknownIdentifierCache
	if redisClient != nil {
		unknownIDs = service.NewRedisUnknownIdentifierCache(redisClient, "unknown_identifiers")
	} else {
		unknownIDs = service.NewInMemoryUnknownIdentifierCache()
	}

	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	authSvc := service.NewAuthService(users, sender, unknownIDs, cfg.ConfirmationTTL, cfg.UnknownIdentifierTTL)
	tokenSvc := service.NewTokenService(jwtMgr, sessions, cfg.RefreshPepper, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	sessionSvc := service.NewSessionService(sessions)
	userSvc := service.NewUserService(users, authSvc)

	var limiter middleware.Limiter
	if cfg.RateLimiterBackend == "redis" && redisClient != nil {
		limiter = middleware.NewRedisWindowLimiter(redisClient, "rate", cfg.RateLimitRequests, cfg.RateLimitWindow)
	} else {
		limiter = middleware.NewLocalWindowLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
	authLimiter := middleware.NewRateLimiter(limiter, middleware.FailOpen, "auth", nil).Middleware()

	probes := []health.Probe{health.DatabaseProbe(db)}
	if redisClient != nil {
		probes = append(probes, health.RedisProbe(redisClient))
	}
	readiness := health.NewProbeRunner(2*time.Second, probes...)

	mux := router.NewRouter(router.Dependencies{
		AuthHandler:     handler.NewAuthHandler(authSvc, authSvc, tokenSvc, sessionSvc, userSvc),
		SecurityHandler: handler.NewSecurityHandler(sessionSvc),
		UserHandler:     handler.NewUserHandler(userSvc),
		JWTManager:      jwtMgr,
		Tokens:          tokenSvc,
		BasicAuthToken:  cfg.BasicAuthToken,
		AuthRateLimiter: authLimiter,
		Readiness:       readiness,
		EnableOTelHTTP:  cfg.MetricsEnabled || cfg.TracingEnabled,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	stopSweeper := service.StartSessionSweeper(sessions, cfg.SessionSweepInterval, logger)

	a := app.New(cfg, logger, server, runtime, func() {
		stopSweeper()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	})
	return a.Run(ctx)
}
