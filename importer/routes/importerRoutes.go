package routes

import (
	"github.com/brunomedeirosisi/pos/importer/controllers"
	"github.com/brunomedeirosisi/pos/importer/repositories"
	"github.com/brunomedeirosisi/pos/importer/services"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func ImporterRouterInit(
	app *fiber.App,
	jobRepository repositories.ImportJobRepository,
	importQueue *services.ImportQueue,
	redisClient *redis.Client,
	uploadDir string,
) {
	importController := &controllers.ImportController{
		JobRepo:     jobRepository,
		Queue:       importQueue,
		RedisClient: redisClient,
		UploadDir:   uploadDir,
	}

	importRoutes := app.Group("/api/v1/imports")
	importRoutes.Post("/", importController.EnqueueImport)
	importRoutes.Get("/:sessionID", importController.GetImportStatus)
	importRoutes.Get("/:sessionID/report", importController.DownloadReport)
}
