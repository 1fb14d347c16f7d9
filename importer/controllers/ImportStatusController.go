package controllers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/brunomedeirosisi/pos/db/models"

	"github.com/gofiber/fiber/v2"
)

const statusCacheTTL = time.Hour

// GetImportStatus returns the polling-friendly status document of one import
// session: status, timestamps, structured summary once completed, error
// message if failed, and the ordered log entries. Terminal jobs never change
// again, so their documents are cached in redis.
func (ic *ImportController) GetImportStatus(c *fiber.Ctx) error {
	sessionID := c.Params("sessionID")

	cacheKey := fmt.Sprintf("import:status:%s", sessionID)
	if ic.RedisClient != nil {
		if cached, err := ic.RedisClient.Get(c.Context(), cacheKey).Result(); err == nil {
			c.Set("Content-Type", "application/json")
			return c.SendString(cached)
		}
	}

	job, err := ic.JobRepo.GetJobBySessionID(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	}

	logs, err := ic.JobRepo.GetLogs(job.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load import logs",
			"error":   err.Error(),
		})
	}

	logEntries := make([]fiber.Map, 0, len(logs))
	for _, entry := range logs {
		logEntries = append(logEntries, fiber.Map{
			"level":     entry.Level,
			"message":   entry.Message,
			"timestamp": entry.CreatedAt,
		})
	}

	document := fiber.Map{
		"session_id":    job.SessionID,
		"status":        job.Status,
		"overwrite":     job.Overwrite,
		"created_by":    job.CreatedBy,
		"created_at":    job.CreatedAt,
		"started_at":    job.StartedAt,
		"finished_at":   job.FinishedAt,
		"error_message": job.ErrorMessage,
		"report_ready":  job.ReportPath != nil,
		"logs":          logEntries,
	}
	if len(job.Summary) > 0 {
		document["summary"] = json.RawMessage(job.Summary)
	}

	terminal := job.Status == models.ImportJobCompleted || job.Status == models.ImportJobFailed
	if terminal && ic.RedisClient != nil {
		if encoded, err := json.Marshal(document); err == nil {
			ic.RedisClient.Set(c.Context(), cacheKey, encoded, statusCacheTTL)
		}
	}

	return c.Status(fiber.StatusOK).JSON(document)
}
