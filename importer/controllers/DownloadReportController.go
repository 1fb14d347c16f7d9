package controllers

import (
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
)

// DownloadReport serves the reconciliation report of a completed session
func (ic *ImportController) DownloadReport(c *fiber.Ctx) error {
	sessionID := c.Params("sessionID")

	job, err := ic.JobRepo.GetJobBySessionID(sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	}

	if job.ReportPath == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("No reconciliation report available for session %s", sessionID),
		})
	}

	if _, err := os.Stat(*job.ReportPath); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Reconciliation report file no longer exists",
		})
	}

	return c.Download(*job.ReportPath)
}
