package main

import (
	"context"
	"time"

	"github.com/brunomedeirosisi/pos/config"
	"github.com/brunomedeirosisi/pos/utils"

	// Repositories
	importer_repositories "github.com/brunomedeirosisi/pos/importer/repositories"

	// Services
	importer_services "github.com/brunomedeirosisi/pos/importer/services"

	// Routes
	importer_routes "github.com/brunomedeirosisi/pos/importer/routes"

	// bleve
	bleveRepositories "github.com/brunomedeirosisi/pos/bleve/repositories"
	bleveServices "github.com/brunomedeirosisi/pos/bleve/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	// Initialize Zap logger
	config.InitLogger()

	// Load environment variables
	config.LoadEnv()

	app := fiber.New(fiber.Config{
		BodyLimit: 512 * 1024 * 1024, // legacy archives can be large
	})

	// Initialize database and configs
	db := config.ConfigureDatabase()
	port := config.GetEnv("PORT")
	if port == "" {
		port = "8080"
		config.Logger.Warn("PORT not set, using default: 8080")
	}
	ctx := context.Background()

	redisClient := config.InitRedisServer(ctx)

	uploadDir := config.GetEnv("IMPORT_UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads/imports"
		config.Logger.Warn("IMPORT_UPLOAD_DIR not set, using default: ./uploads/imports")
	}

	indexPath := config.GetEnv("BLEVE_INDEX_PATH")
	if indexPath == "" {
		indexPath = "./bleve_data" // Default for local development
		config.Logger.Warn("BLEVE_INDEX_PATH not set, using default: ./bleve_data")
	}

	dbfEncoding := config.GetEnv("IMPORT_DBF_ENCODING")

	// Initialize the mailer; completion mail is skipped when SMTP is not configured
	utils.InitializeMailer()

	// Serve generated reports alongside the session dirs
	app.Static("/uploads", "./uploads")

	// Repositories
	bleveIndexingService := bleveServices.NewIndexingService(config.Logger, indexPath)
	_, catalogIndexRepo := bleveRepositories.NewCatalogIndexRepository(bleveIndexingService)
	jobRepo := importer_repositories.NewImportJobRepository(db)

	// Services
	pipeline := importer_services.NewImportPipeline(db, config.Logger, jobRepo, catalogIndexRepo, dbfEncoding)
	importQueue := importer_services.NewImportQueue(jobRepo, pipeline, config.Logger)
	if err := importQueue.Start(ctx); err != nil {
		config.Logger.Fatal("Failed to start import queue", zap.Error(err))
	}

	// Routes
	importer_routes.ImporterRouterInit(app, jobRepo, importQueue, redisClient, uploadDir)

	// Background cleanup tasks
	go utils.RunScheduledCleanup(redisClient, uploadDir, 7*24*time.Hour)

	// Start the application
	config.Logger.Info("Server starting", zap.String("port", port))
	config.Logger.Fatal("Server failed", zap.String("port", port), zap.Error(app.Listen(":"+port)))
}
