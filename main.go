package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fleet-service/internal/auth"
	"fleet-service/internal/clients"
	"fleet-service/internal/config"
	"fleet-service/internal/handlers"
	"fleet-service/internal/metrics"
	"fleet-service/internal/middleware"
	"fleet-service/internal/models"
	natsClient "fleet-service/internal/nats"
	"fleet-service/internal/redis"
	"fleet-service/internal/repository"
	"fleet-service/internal/services"
)

func main() {
	// Load configuration
	cfg := config.New()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Initialize database connection
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate models
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis connection (optional; dashboard snapshots fall
	// back to recomputation without it)
	var redisClient *redis.Client
	redisClient, err = redis.NewClient(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Compliance snapshot caching disabled")
		redisClient = nil
	} else {
		log.Println("Connected to Redis successfully")
	}

	// Initialize NATS connection for event publishing (optional)
	var nc *natsClient.Client
	nc, err = natsClient.NewClient(cfg.NATS)
	if err != nil {
		log.Printf("Warning: Failed to connect to NATS: %v", err)
		log.Println("Event publishing will be disabled")
		nc = nil
	} else {
		log.Println("Connected to NATS successfully")
		defer nc.Close()
	}

	// Initialize metrics
	metricsCollector := metrics.New()

	// Initialize repositories and collaborators
	membershipRepo := repository.NewMembershipRepository(db)
	tokenIssuer := auth.NewTokenIssuer(cfg.App.JWTSecret, time.Duration(cfg.App.JWTExpiryHours)*time.Hour)
	notificationClient := clients.NewNotificationClient(cfg.Notification.ServiceURL, cfg.Notification.APIKey)
	if notificationClient == nil {
		log.Println("Warning: NOTIFICATION_SERVICE_URL not set, outbound email disabled")
	}

	// Initialize services
	accountService := services.NewAccountService(db, membershipRepo, tokenIssuer)
	invitationService := services.NewInvitationService(db, membershipRepo, notificationClient, nc)
	resetService := services.NewPasswordResetService(db, membershipRepo, notificationClient)
	tripService := services.NewTripService(db, nc)
	fleetService := services.NewFleetService(db)
	companyService := services.NewCompanyService(db, membershipRepo)
	complianceService := services.NewComplianceService(db, redisClient)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	authHandler := handlers.NewAuthHandler(accountService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, metricsCollector)
	resetHandler := handlers.NewPasswordResetHandler(resetService, metricsCollector)
	tripHandler := handlers.NewTripHandler(tripService, metricsCollector)
	fleetHandler := handlers.NewFleetHandler(fleetService)
	companyHandler := handlers.NewCompanyHandler(companyService)
	dashboardHandler := handlers.NewDashboardHandler(complianceService)

	router := setupRouter(
		cfg,
		logger,
		metricsCollector,
		tokenIssuer,
		membershipRepo,
		healthHandler,
		authHandler,
		invitationHandler,
		resetHandler,
		tripHandler,
		fleetHandler,
		companyHandler,
		dashboardHandler,
	)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("fleet-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	}

	log.Println("Server exited")
}

func setupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	metricsCollector *metrics.Metrics,
	tokenIssuer *auth.TokenIssuer,
	membershipRepo *repository.MembershipRepository,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	invitationHandler *handlers.InvitationHandler,
	resetHandler *handlers.PasswordResetHandler,
	tripHandler *handlers.TripHandler,
	fleetHandler *handlers.FleetHandler,
	companyHandler *handlers.CompanyHandler,
	dashboardHandler *handlers.DashboardHandler,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	} else {
		corsConfig.AllowCredentials = true
	}

	// Global middleware
	router.Use(cors.New(corsConfig))
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(metricsCollector.Middleware())

	// Metrics endpoint (Prometheus scraping)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	authn := middleware.Principal(tokenIssuer, membershipRepo)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Accounts
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", authn, authHandler.Me)
		}

		// Invitations: issue requires auth, the token endpoints are
		// public (the token is the credential)
		invitations := v1.Group("/invitations")
		{
			invitations.POST("", authn, invitationHandler.Issue)
			invitations.GET("/:token", invitationHandler.Validate)
			invitations.POST("/:token/accept", invitationHandler.Accept)
		}

		// Password resets: all public
		resets := v1.Group("/password-resets")
		{
			resets.POST("", resetHandler.Request)
			resets.GET("/:token", resetHandler.Validate)
			resets.POST("/:token", resetHandler.Reset)
		}

		// Companies: admin-gated mutation
		companies := v1.Group("/companies", authn)
		{
			companies.GET("", companyHandler.List)
			companies.GET("/:id", companyHandler.Get)
			companies.POST("", middleware.RequireRole(models.RoleAdmin), companyHandler.Create)
			companies.PUT("/:id", middleware.RequireRole(models.RoleAdmin), companyHandler.Update)
			companies.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), companyHandler.Deactivate)
		}

		// Drivers
		drivers := v1.Group("/drivers", authn)
		{
			drivers.GET("", fleetHandler.ListDrivers)
			drivers.GET("/:id", fleetHandler.GetDriver)
			drivers.POST("", middleware.RequireRole(models.RoleUser), fleetHandler.CreateDriver)
			drivers.PUT("/:id", middleware.RequireRole(models.RoleUser), fleetHandler.UpdateDriver)
			drivers.DELETE("/:id", middleware.RequireRole(models.RoleUser), fleetHandler.DeactivateDriver)
		}

		// Trucks
		trucks := v1.Group("/trucks", authn)
		{
			trucks.GET("", fleetHandler.ListTrucks)
			trucks.GET("/:id", fleetHandler.GetTruck)
			trucks.POST("", middleware.RequireRole(models.RoleUser), fleetHandler.CreateTruck)
			trucks.PUT("/:id", middleware.RequireRole(models.RoleUser), fleetHandler.UpdateTruck)
		}

		// Trailers
		trailers := v1.Group("/trailers", authn)
		{
			trailers.GET("", fleetHandler.ListTrailers)
			trailers.GET("/:id", fleetHandler.GetTrailer)
			trailers.POST("", middleware.RequireRole(models.RoleUser), fleetHandler.CreateTrailer)
			trailers.PUT("/:id", middleware.RequireRole(models.RoleUser), fleetHandler.UpdateTrailer)
		}

		// Maintenance
		maintenance := v1.Group("/maintenance", authn)
		{
			maintenance.GET("", fleetHandler.ListMaintenanceRecords)
			maintenance.GET("/:id", fleetHandler.GetMaintenanceRecord)
			maintenance.POST("", middleware.RequireRole(models.RoleUser), fleetHandler.CreateMaintenanceRecord)
		}

		// Maintenance categories (global reference data)
		categories := v1.Group("/maintenance-categories", authn)
		{
			categories.GET("", fleetHandler.ListMaintenanceCategories)
			categories.POST("", middleware.RequireRole(models.RoleAdmin), fleetHandler.CreateMaintenanceCategory)
		}

		// Trips
		trips := v1.Group("/trips", authn)
		{
			trips.GET("", tripHandler.List)
			trips.GET("/:id", tripHandler.Get)
			trips.POST("", middleware.RequireRole(models.RoleUser), tripHandler.Create)
			trips.POST("/:id/start", tripHandler.Start)
			trips.POST("/:id/complete", tripHandler.Complete)
			trips.POST("/:id/cancel", tripHandler.Cancel)
			trips.POST("/:id/inspections", tripHandler.FileInspection)
			trips.GET("/:id/inspections", tripHandler.ListInspections)
		}

		// Dashboard
		dashboard := v1.Group("/dashboard", authn)
		{
			dashboard.GET("/compliance", dashboardHandler.Compliance)
		}
	}

	return router
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	log.Println("Connected to database successfully")
	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	// uuid_generate_v4 defaults need the extension in place first.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid extension: %w", err)
	}

	return db.AutoMigrate(
		&models.Tenant{},
		&models.Company{},
		&models.User{},
		&models.Membership{},
		&models.ActivityLog{},
		&models.Driver{},
		&models.Truck{},
		&models.Trailer{},
		&models.MaintenanceCategory{},
		&models.MaintenanceRecord{},
		&models.Trip{},
		&models.Inspection{},
		&models.InvitationToken{},
		&models.PasswordResetToken{},
	)
}
