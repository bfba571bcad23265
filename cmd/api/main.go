package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rentora/rentora-api/docs" // Swagger docs
	"github.com/rentora/rentora-api/internal/config"
	"github.com/rentora/rentora-api/internal/database"
	"github.com/rentora/rentora-api/internal/handlers"
	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/middleware"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/internal/storage"
	"github.com/rentora/rentora-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Rentora API
// @version 1.0
// @description REST API for rent revision and monthly billing of a multi-unit rental property

// @contact.name API Support

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, store, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, store)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Redirect root to swagger
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// Operator account management
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.GET("/users/:user_id", h.User.Show)
				admin.PUT("/users/:user_id", h.User.Update)
				admin.DELETE("/users/:user_id", h.User.Delete)
				admin.POST("/users/:user_id/toggle_status", h.User.ToggleStatus)

				// Destructive billing/payment operations
				admin.DELETE("/payments/:payment_id", h.Payment.Delete)
				admin.DELETE("/tenancies/:tenancy_id/rent/:revision_id", h.Tenancy.DeleteRentRevision)
				admin.DELETE("/tenants/:tenant_id", h.Tenant.Delete)
				admin.DELETE("/units/:unit_id", h.Unit.Delete)

				// Billing generation replaces the stored wing/month
				admin.POST("/billing/generate", h.Billing.Generate)

				// Background job status
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Password change (own account)
			protected.POST("/users/change_password", h.User.ChangePassword)

			// Tenants
			protected.GET("/tenants", h.Tenant.Index)
			protected.POST("/tenants", h.Tenant.Create)
			protected.GET("/tenants/:tenant_id", h.Tenant.Show)
			protected.PUT("/tenants/:tenant_id", h.Tenant.Update)

			// Units
			protected.GET("/units", h.Unit.Index)
			protected.GET("/units/wings", h.Unit.Wings)
			protected.POST("/units", h.Unit.Create)
			protected.GET("/units/:unit_id", h.Unit.Show)
			protected.PUT("/units/:unit_id", h.Unit.Update)

			// Tenancies and rent revisions
			protected.GET("/tenancies", h.Tenancy.Index)
			protected.POST("/tenancies", h.Tenancy.Create)
			protected.GET("/tenancies/:tenancy_id", h.Tenancy.Show)
			protected.PUT("/tenancies/:tenancy_id", h.Tenancy.Update)
			protected.POST("/tenancies/:tenancy_id/end", h.Tenancy.End)
			protected.POST("/tenancies/:tenancy_id/reopen", h.Tenancy.Reopen)
			protected.GET("/tenancies/:tenancy_id/rent", h.Tenancy.RentRevisions)
			protected.POST("/tenancies/:tenancy_id/rent", h.Tenancy.SetRent)
			protected.GET("/tenancies/:tenancy_id/rent/effective", h.Tenancy.EffectiveRent)

			// Billing
			// Static routes first so "months" and "lines" are not matched as :month_key
			protected.GET("/billing/months", h.Billing.Months)
			protected.GET("/billing/lines", h.Billing.Lines)
			protected.GET("/billing/lines/:bill_line_id", h.Billing.ShowLine)
			protected.GET("/billing/lines/:bill_line_id/statement", h.Billing.StatementPDF)
			protected.POST("/billing/lines/:bill_line_id/payments", h.Payment.Create)
			protected.GET("/billing/:month_key/:wing", h.Billing.WingMonth)
			protected.GET("/billing/:month_key/:wing/readings", h.Billing.Readings)
			protected.GET("/billing/:month_key/:wing/export", h.Billing.ExportXLSX)

			// Payments
			protected.GET("/payments", h.Payment.Index)
			protected.POST("/payments", h.Payment.Create)
			protected.GET("/payments/:payment_id", h.Payment.Show)
			protected.POST("/payments/:payment_id/receipt", h.Payment.UploadReceipt)
			protected.GET("/payments/:payment_id/receipt", h.Payment.DownloadReceipt)

			// Reports
			protected.GET("/reports/dues/:month_key", h.Report.DuesCSV)
			protected.GET("/reports/collection/:month_key", h.Report.CollectionPDF)

			// Notifications
			// Static route first so "read_all" is not matched as :notification_id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/read_all", h.Notification.MarkAllAsRead)
				notifications.POST("/:notification_id/read", h.Notification.MarkAsRead)
				notifications.DELETE("/:notification_id", h.Notification.Delete)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Nightly sweep: repair bills whose inline reconciliation was lost
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Reconciling recently paid bills...")
		count, err := svcs.Payment.ReconcileBillLinesSince(ctx, time.Now().Add(-48*time.Hour))
		if err != nil {
			return err
		}
		logger.Info("[Job] Reconciled bill lines", "count", count)
		return nil
	})

	// Daily overdue bill notification
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Checking overdue bills...")
		return svcs.Payment.CheckOverdueBills(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
