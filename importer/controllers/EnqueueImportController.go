package controllers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brunomedeirosisi/pos/importer/repositories"
	"github.com/brunomedeirosisi/pos/importer/services"

	"github.com/brunomedeirosisi/pos/db/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// ImportController exposes the thin HTTP surface of the import engine. All
// actual work happens on the queue worker; these handlers only move files
// and read job state.
type ImportController struct {
	JobRepo     repositories.ImportJobRepository
	Queue       *services.ImportQueue
	RedisClient *redis.Client
	UploadDir   string
}

// EnqueueImport accepts a multipart upload of legacy table files (or zip
// archives of them), stores everything into a fresh session directory and
// enqueues the import job. Returns immediately; progress is observable via
// the status endpoint.
func (ic *ImportController) EnqueueImport(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Failed to parse multipart form"})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "No files uploaded, expected 'files' field"})
	}

	createdBy := c.FormValue("created_by")
	if createdBy == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing 'created_by' field in FormData"})
	}

	overwrite := c.FormValue("overwrite") == "true"

	sessionID := services.NewSessionID()
	sessionDir := filepath.Join(ic.UploadDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create session directory", "error": err.Error()})
	}

	for _, file := range files {
		destPath := filepath.Join(sessionDir, filepath.Base(file.Filename))
		if err := c.SaveFile(file, destPath); err != nil {
			os.RemoveAll(sessionDir)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": fmt.Sprintf("Failed to save uploaded file %s", file.Filename),
				"error":   err.Error(),
			})
		}
	}

	job := &models.ImportJob{
		SessionID:  sessionID,
		SessionDir: sessionDir,
		Overwrite:  overwrite,
		CreatedBy:  createdBy,
	}

	created, err := ic.Queue.Enqueue(job)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Failed to enqueue import job",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message":    "Import job enqueued",
		"job_id":     created.ID,
		"session_id": created.SessionID,
	})
}
