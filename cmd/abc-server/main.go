package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abctrack/abctrack/internal/config"
	"github.com/abctrack/abctrack/internal/domain/bulkupload"
	"github.com/abctrack/abctrack/internal/domain/cases"
	"github.com/abctrack/abctrack/internal/domain/feeding"
	"github.com/abctrack/abctrack/internal/domain/inventory"
	"github.com/abctrack/abctrack/internal/domain/kennel"
	"github.com/abctrack/abctrack/internal/domain/project"
	"github.com/abctrack/abctrack/internal/domain/reporting"
	"github.com/abctrack/abctrack/internal/domain/user"
	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/audit"
	"github.com/abctrack/abctrack/internal/platform/auth"
	"github.com/abctrack/abctrack/internal/platform/db"
	"github.com/abctrack/abctrack/internal/platform/geocode"
	"github.com/abctrack/abctrack/internal/platform/metrics"
	"github.com/abctrack/abctrack/internal/platform/middleware"
	"github.com/abctrack/abctrack/internal/platform/photostore"
)

const (
	exitConfig  = 2
	exitStorage = 3
)

// exitError carries the process exit code for a failed subcommand.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configErr(err error) error  { return &exitError{code: exitConfig, err: err} }
func storageErr(err error) error { return &exitError{code: exitStorage, err: err} }

func main() {
	rootCmd := &cobra.Command{
		Use:           "abc-server",
		Short:         "Animal Birth Control field operations server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(projectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, configErr(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, configErr(err)
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, storageErr(fmt.Errorf("connect to database: %w", err))
	}
	return pool, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ABC API server",
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

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return storageErr(fmt.Errorf("migration failed: %w", err))
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, cfg.MigrationsDir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return storageErr(err)
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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
	})

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default project, catalogs and super admin (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("admin-email")
			password, _ := cmd.Flags().GetString("admin-password")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newLogger()
			svcs := buildServices(pool, cfg, logger)

			p, err := svcs.projects.EnsureDefault(ctx,
				cfg.DefaultOrgCode, cfg.DefaultOrgName,
				cfg.DefaultProjectCode, cfg.DefaultProjectName)
			if err != nil {
				return storageErr(err)
			}
			fmt.Printf("Project %s-%s ready (%s)\n", p.OrgCode, p.Code, p.ID)

			generated := false
			if password == "" {
				buf := make([]byte, 12)
				if _, err := crypto_rand.Read(buf); err != nil {
					return err
				}
				password = hex.EncodeToString(buf)
				generated = true
			}
			u, err := svcs.users.EnsureSuperAdmin(ctx, email, password)
			if err != nil {
				return storageErr(err)
			}
			fmt.Printf("Super admin %s ready (%s)\n", u.Email, u.ID)
			if generated {
				fmt.Printf("Generated password (shown once): %s\n", password)
			}
			return nil
		},
	}
	cmd.Flags().String("admin-email", "superadmin@abctrack.org", "Super admin email")
	cmd.Flags().String("admin-password", "", "Super admin password (generated when empty)")
	return cmd
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a new project with kennels and default catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			orgCode, _ := cmd.Flags().GetString("org-code")
			orgName, _ := cmd.Flags().GetString("org-name")
			code, _ := cmd.Flags().GetString("code")
			name, _ := cmd.Flags().GetString("name")
			kennels, _ := cmd.Flags().GetInt("kennels")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			svcs := buildServices(pool, cfg, newLogger())
			out, err := svcs.projects.Create(ctx, project.CreateInput{
				OrgCode:    orgCode,
				OrgName:    orgName,
				Code:       code,
				Name:       name,
				MaxKennels: kennels,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Project %s-%s created (%s), %d kennels\n",
				out.Project.OrgCode, out.Project.Code, out.Project.ID, out.Project.MaxKennels)
			return nil
		},
	}
	createCmd.Flags().String("org-code", "", "Organization code (2-5 uppercase letters)")
	createCmd.Flags().String("org-name", "", "Organization name")
	createCmd.Flags().String("code", "", "Project code (2-5 uppercase letters)")
	createCmd.Flags().String("name", "", "Project name")
	createCmd.Flags().Int("kennels", 0, "Kennel pool size (default 300)")
	cmd.AddCommand(createCmd)
	return cmd
}

// services bundles the wired domain layer. The cross-domain edges are the
// package-local interfaces each service declares: the inventory service is
// the ledger for cases and feeding, the kennel service backs assignment for
// cases and pool provisioning for projects.
type services struct {
	users     *user.Service
	projects  *project.Service
	inventory *inventory.Service
	kennels   *kennel.Service
	cases     *cases.Service
	feeding   *feeding.Service
	reporting *reporting.Service
	bulk      *bulkupload.Service
}

func buildServices(pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) *services {
	runner := db.NewRunner(pool)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTLHours)

	kennelSvc := kennel.NewService(kennel.NewRepoPG(pool))
	inventorySvc := inventory.NewService(inventory.NewRepoPG(pool))
	userSvc := user.NewService(user.NewRepoPG(pool), tokens, logger)
	projectSvc := project.NewService(project.NewRepoPG(pool), runner, kennelSvc, inventorySvc, userSvc, logger)

	caseRepo := cases.NewRepoPG(pool)
	caseSvc := cases.NewService(caseRepo, runner, inventorySvc, kennelSvc, logger)
	feedingSvc := feeding.NewService(feeding.NewRepoPG(pool), runner, inventorySvc, logger)
	reportingSvc := reporting.NewService(reporting.NewRepoPG(pool), caseRepo, kennelSvc, inventorySvc, logger)
	bulkSvc := bulkupload.NewService(caseSvc, logger)

	return &services{
		users:     userSvc,
		projects:  projectSvc,
		inventory: inventorySvc,
		kennels:   kennelSvc,
		cases:     caseSvc,
		feeding:   feedingSvc,
		reporting: reportingSvc,
		bulk:      bulkSvc,
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	svcs := buildServices(pool, cfg, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	// Global middleware, outermost first.
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Project-ID"},
	}))
	e.Use(middleware.BodyLimit("2M", "12M"))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(metrics.Middleware())

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	e.Use(middleware.RateLimit(rateLimitCfg))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	}
	e.Use(db.ProjectMiddleware())
	e.Use(middleware.Audit(logger, audit.NewRecorder(pool)))

	// Infrastructure endpoints outside the authenticated surface.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler())

	api := e.Group("/api")

	userHandler := user.NewHandler(svcs.users)
	userHandler.RegisterPublicRoutes(api)
	userHandler.RegisterRoutes(api)
	project.NewHandler(svcs.projects).RegisterRoutes(api)
	inventory.NewHandler(svcs.inventory).RegisterRoutes(api)
	kennel.NewHandler(svcs.kennels).RegisterRoutes(api)
	cases.NewHandler(svcs.cases).RegisterRoutes(api)
	feeding.NewHandler(svcs.feeding).RegisterRoutes(api)
	reporting.NewHandler(svcs.reporting).RegisterRoutes(api)
	bulkupload.NewHandler(svcs.bulk).RegisterRoutes(api)

	// Photo storage and the orphan reaper.
	var store photostore.Store
	if cfg.PhotoStore == "s3" {
		s3Store, err := photostore.NewS3Store(ctx, cfg.PhotoBucket)
		if err != nil {
			return configErr(fmt.Errorf("photo store: %w", err))
		}
		store = s3Store
	} else {
		store = photostore.NewMemoryStore()
	}
	photostore.NewHandler(store).RegisterRoutes(api)

	reaperCtx, stopReaper := context.WithCancel(ctx)
	defer stopReaper()
	reaper := photostore.NewReaper(store, photostore.NewPGReferenceChecker(pool),
		time.Duration(cfg.PhotoReaperGraceMin)*time.Minute, logger)
	go reaper.Run(reaperCtx)

	geocoder := geocode.NewClient(cfg.GeocoderURL, time.Duration(cfg.GeocoderTimeoutSec)*time.Second)
	geocode.NewHandler(geocoder).RegisterRoutes(api)

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
	stopReaper()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
