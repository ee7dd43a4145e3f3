package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vntravel/booking-backend/internal/cache"
	"github.com/vntravel/booking-backend/internal/config"
	"github.com/vntravel/booking-backend/internal/database"
	"github.com/vntravel/booking-backend/internal/handlers"
	"github.com/vntravel/booking-backend/internal/middleware"
	"github.com/vntravel/booking-backend/internal/services"
	"github.com/vntravel/booking-backend/pkg/jwt"
	"github.com/vntravel/booking-backend/pkg/mail"
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

	logger.Info("Starting VN Travel Booking Backend")
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

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Transactional repositories need *sqlx.DB rather than the interface
	sqlxDB, ok := db.(*database.PostgresDB)
	if !ok {
		logger.Fatal("Failed to cast database connection to PostgresDB")
	}

	// Initialize repositories
	tourRepo := database.NewTourRepository(db)
	scheduleRepo := database.NewScheduleRepository(sqlxDB.DB)
	voucherRepo := database.NewVoucherRepository(sqlxDB.DB)
	bookingRepo := database.NewBookingRepository(sqlxDB.DB)
	reviewRepo := database.NewReviewRepository(sqlxDB.DB)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var mailer mail.Mailer
	if cfg.Mail.Mode == "production" {
		logger.Info("Initializing SMTP mailer in production mode...")
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	} else {
		logger.Info("Mailer in development mode (emails are logged, not sent)")
		mailer = mail.NewLogMailer(logger)
	}

	// Optional Redis-backed idempotency guard for booking creation
	var idempotency *cache.IdempotencyStore
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		idempotency = cache.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL)
		logger.Info("Idempotency guard enabled")
	} else {
		logger.Info("REDIS_URL not set, idempotency guard disabled")
	}

	bookingService := services.NewBookingService(
		bookingRepo, tourRepo, scheduleRepo, voucherRepo,
		mailer, cfg.Booking, logger,
	)
	reviewService := services.NewReviewService(reviewRepo, bookingRepo, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	tourHandler := handlers.NewTourHandler(tourRepo, scheduleRepo, reviewService)
	bookingHandler := handlers.NewBookingHandler(bookingService, reviewService, idempotency, logger)
	voucherHandler := handlers.NewVoucherHandler(bookingService)
	adminHandler := handlers.NewAdminHandler(bookingService, reviewService, tourRepo, scheduleRepo, voucherRepo)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Per-IP rate limit for the write-heavy endpoints
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public catalog routes
		tours := v1.Group("/tours")
		{
			tours.GET("", tourHandler.ListTours)
			tours.GET("/:id", tourHandler.GetTour)
			tours.GET("/:id/schedules", tourHandler.ListTourSchedules)
			tours.GET("/:id/reviews", tourHandler.ListTourReviews)
		}
		v1.GET("/schedules/:id", tourHandler.GetSchedule)

		// Public voucher preview (rate limited, it's a guessing target)
		v1.POST("/vouchers/validate", rateLimiter.Middleware(), voucherHandler.ValidateVoucher)

		// Booking routes (protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", rateLimiter.Middleware(), bookingHandler.CreateBooking)
			bookings.GET("", bookingHandler.ListMyBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/confirm", bookingHandler.ConfirmBooking)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
			bookings.POST("/:id/reviews", bookingHandler.SubmitReview)
		}

		// Admin routes (protected, admin role required)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.GET("/bookings", adminHandler.ListBookings)
			admin.POST("/bookings/:id/cancel", adminHandler.CancelBooking)
			admin.PATCH("/bookings/:id/status", adminHandler.SetBookingStatus)

			admin.POST("/tours/:id/schedules", adminHandler.CreateSchedule)
			admin.DELETE("/schedules/:id", adminHandler.DeleteSchedule)

			admin.POST("/vouchers", adminHandler.CreateVoucher)
			admin.GET("/vouchers", adminHandler.ListVouchers)
			admin.PATCH("/vouchers/:id/active", adminHandler.SetVoucherActive)
			admin.DELETE("/vouchers/:id", adminHandler.DeleteVoucher)

			admin.GET("/reviews", adminHandler.ListReviews)
			admin.DELETE("/reviews/:id", adminHandler.DeleteReview)
		}
	}

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

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
