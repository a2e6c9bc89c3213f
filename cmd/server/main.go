package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flyx/flyx-backend/internal/config"
	"github.com/flyx/flyx-backend/internal/handlers"
	"github.com/flyx/flyx-backend/internal/middleware"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/flyx/flyx-backend/pkg/jwt"
	"github.com/flyx/flyx-backend/pkg/validator"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Flyx booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize persistence
	logger.WithField("driver", cfg.Database.Driver).Info("Opening store...")
	stores, err := openStores(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to open store: %v", err)
	}
	defer stores.close()
	logger.Info("Store ready")

	// Initialize services
	logger.Info("Initializing services...")
	clock := services.Clock(services.UTCClock)
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	sequence := services.NewSequenceGenerator(stores.counters, clock)
	statusMachine := services.NewBookingStatusMachine(stores.bookings, clock, logger)
	auditService := services.NewAuditService(stores.auditLogs, cfg.Security.EnableAuditLog, clock, logger)

	orchestratorConfig := services.DefaultOrchestratorConfig()
	orchestratorConfig.MaxPassengers = cfg.Booking.MaxPassengers
	orchestrator := services.NewBookingOrchestratorService(
		stores.flights,
		stores.fareLines,
		stores.bookings,
		stores.passengers,
		sequence,
		services.NewFareCalculator(),
		services.NewSeatAllocator(),
		statusMachine,
		auditService,
		orchestratorConfig,
		clock,
		logger,
	)

	evaluator := services.NewPaymentEvaluator(
		validator.NewCardValidator(),
		services.NewRandomOutcome(cfg.Payment.SuccessRate, cfg.Payment.Seed),
		cfg.Payment.GatewayDelay,
	)
	paymentService := services.NewPaymentService(
		stores.payments,
		stores.bookings,
		stores.paymentAudits,
		sequence,
		evaluator,
		statusMachine,
		cfg.Booking.Currency,
		clock,
		logger,
	)
	passengerService := services.NewPassengerService(stores.passengers, clock, logger)

	if cfg.Database.Driver == config.DriverMemory {
		if err := seedDemoFlights(context.Background(), stores.flights, sequence, cfg.Booking.Currency, logger); err != nil {
			logger.Fatalf("Failed to seed demo flights: %v", err)
		}
	}

	// Initialize and start cron service
	cronService := services.NewCronService(stores.bookings, stores.fareLines, auditService, services.CronConfig{
		OrphanSweepSchedule: cfg.Booking.OrphanSweepSchedule,
		OrphanGracePeriod:   cfg.Booking.OrphanGracePeriod,
		AuditRetention:      cfg.Security.AuditRetention,
	}, clock, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("✓ Cron service started")

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.Logger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(stores.ping, cronService))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Bookings:      handlers.NewBookingHandler(orchestrator, logger),
		Payments:      handlers.NewPaymentHandler(paymentService, logger),
		AdminBookings: handlers.NewAdminBookingHandler(orchestrator, paymentService, auditService, logger),
		AdminPayments: handlers.NewAdminPaymentHandler(paymentService, logger),
		Passengers:    handlers.NewPassengerHandler(passengerService, auditService, logger),
	}, jwtService, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop cron service
	logger.Info("Stopping cron service...")
	cronService.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(ping func(ctx context.Context) error, cronService *services.CronService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		// Check store connection
		if err := ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"cron":      cronService.GetJobStatus(),
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
