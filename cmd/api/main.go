package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/proresume/server/internal/auth"
	"github.com/proresume/server/internal/background"
	"github.com/proresume/server/internal/config"
	"github.com/proresume/server/internal/database"
	"github.com/proresume/server/internal/handlers"
	"github.com/proresume/server/internal/metrics"
	middlewareCustom "github.com/proresume/server/internal/middleware"
	"github.com/proresume/server/internal/oauth"
	"github.com/proresume/server/internal/repositories"
	"github.com/proresume/server/internal/routes"
	"github.com/proresume/server/internal/services"
	pkghttp "github.com/proresume/server/pkg/http"
	pkglogger "github.com/proresume/server/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, cfg.Database.DSN()); err != nil {
		migrateCancel()
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	migrateCancel()

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// Token manager and audit logging
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Server.ClientURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Services
	verificationService := services.NewVerificationService(
		userRepo,
		refreshTokenRepo,
		emailService,
		logger,
		cfg.Auth.VerificationTokenExpiry,
		cfg.Auth.ResetTokenExpiry,
	)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, tokenManager, verificationService, logger, auditLogger)
	oauthService := services.NewOAuthService(userRepo, authService, logger, auditLogger)
	userService := services.NewUserService(userRepo, refreshTokenRepo, verificationService, logger, auditLogger)

	// OAuth providers
	providers := []handlers.OAuthProvider{
		oauth.NewGoogleProvider(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.CallbackBaseURL),
		oauth.NewLinkedInProvider(cfg.OAuth.LinkedInClientID, cfg.OAuth.LinkedInClientSecret, cfg.OAuth.CallbackBaseURL),
	}

	// Handlers
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, verificationService, ipConfig)
	oauthHandler := handlers.NewOAuthHandler(providers, oauthService, cfg.Server.ClientURL, logger)
	userHandler := handlers.NewUserHandler(userService)

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Background cleanup of expired tokens
	cleanupWorker := background.NewCleanupWorker(refreshTokenRepo, userRepo, collector, logger, cfg.Auth.CleanupInterval)

	// Router
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.ClientURL)
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = append(corsConfig.AllowedOrigins, cfg.Server.AllowedOrigins...)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.Metrics(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, oauthHandler, userHandler, tokenManager)

	router.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupWorker.Run(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")
	cleanupCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
