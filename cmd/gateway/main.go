// Package main is the entry point for the agentgate gateway.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/agentgate/agentgate/internal/auth"
	"github.com/agentgate/agentgate/internal/config"
	gwhttp "github.com/agentgate/agentgate/internal/http"
	"github.com/agentgate/agentgate/internal/manifest"
	"github.com/agentgate/agentgate/internal/ratelimit"
	"github.com/agentgate/agentgate/internal/store/file"
	"github.com/agentgate/agentgate/internal/token"
	"github.com/agentgate/agentgate/internal/tools"
)

const version = "1.0.0"

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.LogLevel),
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.LogLevel),
		})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Error reporting
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     "agentgate@" + version,
		}); err != nil {
			logger.Error("failed to initialize sentry", "error", err)
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Durable store
	st, err := file.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	logger.Info("initialized file store", "data_dir", cfg.DataDir)

	// Fast counter store, optional
	var fast ratelimit.FastStore
	if cfg.RedisAddr != "" {
		redisStore := ratelimit.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisStore.Close()
		fast = redisStore
	}

	limiter := ratelimit.NewLimiter(fast, st, cfg.RequestsPerMinute, cfg.RequestsPerHour,
		ratelimit.WithLogger(logger))
	logger.Info("rate limiter ready",
		"per_minute", cfg.RequestsPerMinute,
		"per_hour", cfg.RequestsPerHour,
		"fast_store", limiter.UsingFastStore())

	// Token service
	tokens := token.NewService(st, st, cfg.IssuerURL,
		token.WithLogger(logger),
		token.WithAccessTokenTTL(cfg.AccessTokenTTL),
		token.WithRefreshTokenTTL(cfg.RefreshTokenTTL),
		token.WithAuthCodeTTL(cfg.AuthCodeTTL))

	// Authentication
	lockout := auth.NewLockoutService(cfg.LoginLockoutAttempts, cfg.LoginLockoutDuration)
	authSvc := auth.NewService(st.Users(), auth.WithLogger(logger), auth.WithLockout(lockout))
	blacklist := auth.NewBlacklist(st)
	sessions := auth.NewSessionService(st,
		auth.WithCookieSecure(cfg.CookieSecure),
		auth.WithCookieDomain(cfg.CookieDomain),
		auth.WithSessionTTL(cfg.SessionDuration))

	csrfSecret := cfg.CSRFSecret
	if csrfSecret == "" {
		csrfSecret = randomSecret()
	}
	csrf := auth.NewCSRFService(csrfSecret, cfg.CookieSecure, cfg.CookieDomain)

	// Tool surface
	dispatcher := tools.NewDispatcher(tools.ContentModuleName, tools.WithLogger(logger))
	dispatcher.RegisterModule(tools.NewContentModule(st.Content(), st.Users()))

	builder := manifest.NewBuilder("AgentGate", version,
		"Authenticated tool access to host content for AI agents", cfg.IssuerURL)

	// HTTP server
	server := gwhttp.NewServer(cfg.Addr(), gwhttp.WithLogger(logger))
	gwhttp.Mount(server.Router(), gwhttp.Handlers{
		Gate:           gwhttp.NewGate(tokens, blacklist, limiter, logger),
		OAuth:          gwhttp.NewOAuthHandler(tokens, authSvc, sessions, blacklist, logger),
		Tools:          gwhttp.NewToolsHandler(dispatcher, logger),
		Login:          gwhttp.NewLoginHandler(authSvc, sessions, csrf, logger),
		Manifest:       gwhttp.NewManifestHandler(builder, dispatcher, limiter, version),
		LoginRateLimit: cfg.LoginRateLimit,
	})

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("server started", "addr", cfg.Addr(), "issuer", cfg.IssuerURL)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
