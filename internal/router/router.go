package router

import (
	"context"
	"log"
	"strconv"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/roadwatch/backend/internal/handlers"
	"github.com/roadwatch/backend/internal/media"
	"github.com/roadwatch/backend/internal/middleware"
	"github.com/roadwatch/backend/internal/models"
	"github.com/roadwatch/backend/internal/repositories"
	"github.com/roadwatch/backend/internal/services"
	"github.com/roadwatch/backend/pkg/config"
	"github.com/roadwatch/backend/pkg/firebase"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.BodyLimit(strconv.FormatInt(cfg.MaxRequestBytes, 10) + "B"))
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *config.DB, firebaseApp *firebase.App, cfg *config.Config) {
	// AutoMigrate the PostgreSQL engagement models
	err := db.Postgres.AutoMigrate(
		&models.Reaction{},
		&models.Comment{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize repositories ---
	reportRepo := repositories.NewMongoReportRepository(db.Mongo.Database(cfg.MongoDatabase))
	reactionRepo := repositories.NewPostgresReactionRepository(db.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(db.Postgres)

	// --- Media destinations ---
	blobDest := media.NewBlobDestination(firebaseApp.Bucket, cfg.SignedURLTTL, cfg.UploadTimeout)

	var videoDest media.Destination
	if cfg.YouTubeCredentialsPath != "" {
		vd, err := media.NewVideoDestination(context.Background(), cfg.YouTubeCredentialsPath, cfg.UploadTimeout)
		if err != nil {
			log.Printf("WARNING: video host unavailable, all media will go to object storage: %v", err)
		} else {
			videoDest = vd
			log.Println("Video-hosting destination configured.")
		}
	} else {
		log.Println("No video host configured; videos will be stored in object storage.")
	}

	mediaRouter := media.NewRouter(videoDest, blobDest)

	// --- Services ---
	reportService := services.NewReportService(reportRepo, mediaRouter, blobDest, cfg.MaxUploadBytes, cfg.PriorityMin, cfg.PriorityMax)
	engagementService := services.NewEngagementService(reportRepo, reactionRepo, commentRepo)

	// --- Handlers ---
	reportHandler := handlers.NewReportHandler(reportService)
	engagementHandler := handlers.NewEngagementHandler(engagementService)
	commentHandler := handlers.NewCommentHandler(engagementService)

	// --- Public routes (identity optional where engagement wants it) ---
	public := e.Group("/api/v1/public")
	public.Use(middleware.OptionalJWTAuthMiddleware(cfg.JWTSecret))
	reportHandler.RegisterPublicRoutes(public)
	engagementHandler.RegisterPublicRoutes(public)
	commentHandler.RegisterPublicRoutes(public)
	log.Println("Public routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	reportHandler.RegisterReportRoutes(api)
	engagementHandler.RegisterReactionRoutes(api)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Report, reaction and comment routes configured.")

	// --- Admin routes (require the elevated role) ---
	admin := e.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.RequireRole(models.RoleAdmin))
	reportHandler.RegisterAdminRoutes(admin)
	log.Println("Admin moderation routes configured.")

	log.Println("All routes configured.")
}
