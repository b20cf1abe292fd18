package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/salon/salon/internal/config"
	"github.com/salon/salon/internal/domain/booking"
	"github.com/salon/salon/internal/domain/identity"
	"github.com/salon/salon/internal/platform/auth"
	"github.com/salon/salon/internal/platform/db"
	"github.com/salon/salon/internal/platform/metrics"
	"github.com/salon/salon/internal/platform/middleware"
	"github.com/salon/salon/internal/platform/notification"
	"github.com/salon/salon/pkg/apierror"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "salon-server",
		Short: "Makeup studio booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{
				URL:      cfg.DatabaseURL,
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{
				URL:      cfg.DatabaseURL,
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin user if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, db.PoolConfig{
				URL:      cfg.DatabaseURL,
				MaxConns: cfg.DBMaxConns,
				MinConns: cfg.DBMinConns,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			users := identity.NewRepoPG(pool)
			svc := identity.NewService(users, []byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLHours)*time.Hour)

			u, created, err := svc.EnsureUser(ctx, name, email, password, "admin")
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			if created {
				fmt.Printf("Admin user created: %s (%s)\n", u.Email, u.ID)
			} else {
				fmt.Printf("Admin user already exists: %s\n", u.Email)
			}
			return nil
		},
	}
	cmd.Flags().String("name", "Admin", "Display name for the admin user")
	cmd.Flags().String("email", "admin@makeupstudio.com", "Admin email address")
	cmd.Flags().String("password", "admin123", "Admin password")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierror.Handler(logger, cfg.IsDev())

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Metrics
	metrics.Register()
	e.Use(metrics.Middleware())
	e.GET("/metrics", metrics.Handler())

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// API groups: public endpoints plus an admin group behind JWT auth.
	api := e.Group("/api")
	admin := e.Group("/api", auth.Middleware([]byte(cfg.JWTSecret)), auth.RequireRole("admin"))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Email notifications fall back to a no-op sender when SMTP is not
	// configured, so status changes never fail on mail delivery.
	var sender notification.EmailSender
	if cfg.SMTPHost != "" {
		sender = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     strconv.Itoa(cfg.SMTPPort),
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		})
		logger.Info().Str("host", cfg.SMTPHost).Msg("SMTP sender configured")
	} else {
		sender = &notification.MockEmailSender{}
		logger.Warn().Msg("SMTP_HOST not set; email notifications are logged only")
	}
	mailer := notification.NewMailer(sender, notification.NewTemplateEngine(), logger)

	// Booking domain
	bookingRepo := booking.NewRepoPG(pool)
	bookingSvc := booking.NewService(bookingRepo)
	bookingHandler := booking.NewHandler(bookingSvc, mailer, logger)
	bookingHandler.RegisterRoutes(api, admin)

	// Identity domain
	userRepo := identity.NewRepoPG(pool)
	identitySvc := identity.NewService(userRepo, []byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLHours)*time.Hour)
	identityHandler := identity.NewHandler(identitySvc, logger)
	identityHandler.RegisterRoutes(api, admin)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
