package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ape-stjoseph/tombola-api/internal/background"
	"github.com/ape-stjoseph/tombola-api/internal/config"
	"github.com/ape-stjoseph/tombola-api/internal/database"
	"github.com/ape-stjoseph/tombola-api/internal/handlers"
	middlewareCustom "github.com/ape-stjoseph/tombola-api/internal/middleware"
	"github.com/ape-stjoseph/tombola-api/internal/models"
	"github.com/ape-stjoseph/tombola-api/internal/repositories"
	"github.com/ape-stjoseph/tombola-api/internal/routes"
	"github.com/ape-stjoseph/tombola-api/internal/services"
	pkgauth "github.com/ape-stjoseph/tombola-api/pkg/auth"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run embedded migrations before opening the pool
	if err := database.Migrate(&cfg.Database, logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	participantRepo := repositories.NewParticipantRepository(db)
	lotRepo := repositories.NewLotRepository(db)
	rateLimitRepo := repositories.NewRateLimitRepository(db)
	auditLogRepo := repositories.NewAuditLogRepository(db)
	newsletterRepo := repositories.NewNewsletterRepository(db)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	auditService := services.NewAuditService(auditLogRepo, logger)
	authService := services.NewAuthService(userRepo, sessionRepo, roleRepo, auditService, cfg.Auth.SessionTTL, logger)
	rateLimitService := services.NewRateLimitService(rateLimitRepo, logger)
	participantService := services.NewParticipantService(participantRepo, auditService, logger)
	lotService := services.NewLotService(lotRepo, participantRepo, auditService, logger)
	newsletterService := services.NewNewsletterService(
		newsletterRepo,
		emailService,
		auditService,
		logger,
		cfg.Email.SiteBaseURL,
		cfg.Email.UnsubscribeSecret,
		cfg.Email.ConfirmTokenExpiry,
	)

	// Initialize cleanup manager for expired pending subscriptions
	cleanupManager := background.NewCleanupManager(newsletterService, logger, cfg.Email.CleanupInterval)

	// Bootstrap first admin user if configured
	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(bootstrapCtx, userRepo, roleRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	bootstrapCancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(cfg.Server.Env))
	router.Use(middlewareCustom.CORS(middlewareCustom.CORSConfig{AllowedOrigins: cfg.Server.AllowedOrigins}))
	router.Use(middlewareCustom.RequestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.EdgeBurstLimit(cfg.RateLimit.BurstPerMinute))

	// Register routes
	router.Route("/api/v1", func(r chi.Router) {
		routes.RegisterRoutes(r, routes.Handlers{
			Auth:        handlers.NewAuthHandler(authService),
			Participant: handlers.NewParticipantHandler(participantService),
			Lot:         handlers.NewLotHandler(lotService),
			Newsletter:  handlers.NewNewsletterHandler(newsletterService),
			Audit:       handlers.NewAuditHandler(auditService),
		}, authService, rateLimitService, cfg, logger)
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

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

// ensureAdminUser creates the first admin account if ADMIN_EMAIL and
// ADMIN_PASSWORD are set, and grants the admin role either way.
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, roleRepo *repositories.RoleRepository, logger *slog.Logger) error {
	adminEmail := services.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	admin, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		// Re-granting is idempotent; covers a role row lost to manual edits.
		return roleRepo.Grant(ctx, admin.ID, models.RoleAdmin)
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin, err = userRepo.Create(ctx, adminEmail, hashedPassword)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := roleRepo.Grant(ctx, admin.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
