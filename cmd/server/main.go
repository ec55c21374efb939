package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/roadwatch/backend/internal/apperrors"
	"github.com/roadwatch/backend/internal/router"
	"github.com/roadwatch/backend/pkg/config"
	"github.com/roadwatch/backend/pkg/firebase"
	"github.com/roadwatch/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase (object storage backend)
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.StorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e, cfg)

	// Setup routes and dependencies
	router.SetupRoutes(e, db, firebaseApp, cfg)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
