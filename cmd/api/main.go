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

	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/config"
	"github.com/eyramk/campusgate/internal/database"
	"github.com/eyramk/campusgate/internal/handlers"
	middlewareCustom "github.com/eyramk/campusgate/internal/middleware"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/eyramk/campusgate/internal/observability"
	"github.com/eyramk/campusgate/internal/repositories"
	"github.com/eyramk/campusgate/internal/routes"
	"github.com/eyramk/campusgate/internal/services"
	pkgauth "github.com/eyramk/campusgate/pkg/auth"
	pkglogger "github.com/eyramk/campusgate/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
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

	if err := observability.InitSentry(cfg.Server.SentryDSN, cfg.Server.Env); err != nil {
		logger.Error("failed to initialize error reporting", slog.Any("error", err))
	}
	defer observability.FlushSentry()

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	attemptRepo := repositories.NewLoginAttemptRepository(db)

	// Security services
	auditLogger := pkglogger.NewAuditLogger(logger)

	lockoutPolicy := services.LockoutPolicy{
		FailureThreshold: cfg.Lockout.FailureThreshold,
		BaseCooldown:     cfg.Lockout.BaseCooldown,
		MaxCooldown:      cfg.Lockout.MaxCooldown,
	}
	lockoutService := services.NewLockoutService(attemptRepo, lockoutPolicy, cfg.Lockout.LedgerWindow, logger)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	sessionIssuer := auth.NewSessionIssuer(cfg.Auth.SessionSecret, cfg.Auth.SessionExpiry)

	// AWS SES credential mailer
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.PortalName,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Core services
	authService := services.NewAuthService(
		accountRepo,
		attemptRepo,
		lockoutService,
		sessionIssuer,
		timingDelay,
		cfg.Database.QueryTimeout,
		logger,
		auditLogger,
	)
	provisionService := services.NewProvisionService(
		accountRepo,
		emailService,
		cfg.Database.QueryTimeout,
		logger,
		auditLogger,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(provisionService)

	// Bootstrap first admin account if configured
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminAccount(bootCtx, accountRepo, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	bootCancel()

	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middlewareCustom.Recovery(logger))
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, adminHandler, sessionIssuer, accountRepo)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminAccount creates and provisions the first admin account when
// ADMIN_EMAIL and ADMIN_PASSWORD are set. Without at least one admin, no
// credential can ever be issued.
func ensureAdminAccount(ctx context.Context, accountRepo *repositories.AccountRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin bootstrap")
		return nil
	}

	existing, err := accountRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		if !existing.Provisioned() {
			return fmt.Errorf("admin account exists but has no credentials; provision it via the API")
		}
		logger.Info("admin account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	if err := pkgauth.ValidateSecret(adminPassword); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD rejected: %w", err)
	}

	hash, err := pkgauth.HashSecret(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Account{
		Email:        adminEmail,
		PasswordHash: hash,
		Name:         "Portal Admin",
		Role:         models.RoleAdmin,
	}

	if _, err := accountRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("admin account created")
	return nil
}
