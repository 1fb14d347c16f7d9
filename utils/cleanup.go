package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// Retry configuration
const maxRetries = 3
const retryDelay = 2 * time.Minute

// CleanupExpiredSessionDirs removes import session directories older than the
// TTL. Only the uploaded/extracted source files and generated reports live
// there; the job records themselves are never deleted.
func CleanupExpiredSessionDirs(uploadsDir string, ttl time.Duration, redisClient *redis.Client) error {
	entries, err := os.ReadDir(uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading uploads directory: %v", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= ttl {
			continue
		}

		sessionDir := filepath.Join(uploadsDir, entry.Name())
		if err := os.RemoveAll(sessionDir); err != nil {
			log.Printf("error deleting expired session dir %s: %v", sessionDir, err)
			continue
		}
		log.Printf("session dir %s deleted successfully", sessionDir)

		// Drop the cached status document alongside the files
		cacheKey := fmt.Sprintf("import:status:%s", entry.Name())
		if err := redisClient.Del(context.Background(), cacheKey).Err(); err != nil {
			log.Printf("error deleting cache key %s: %v", cacheKey, err)
		}
	}
	return nil
}

// RunScheduledCleanup runs cleanup tasks daily at 1 AM with retries and logs error messages to console on failure
func RunScheduledCleanup(redisClient *redis.Client, uploadsDir string, retention time.Duration) {
	c := cron.New()

	c.AddFunc("0 1 * * *", func() {
		log.Println("running scheduled import session cleanup...")

		var retries int
		var cleanupSuccess bool

		for retries < maxRetries {
			log.Printf("attempt %d to clean up...", retries+1)
			err := CleanupExpiredSessionDirs(uploadsDir, retention, redisClient)
			if err == nil {
				log.Println("cleanup successful!")
				cleanupSuccess = true
				break
			}
			log.Printf("cleanup failed: %v", err)
			retries++
			time.Sleep(retryDelay)
		}

		if !cleanupSuccess {
			log.Printf("cleanup task failed after %d retries. please check the system.", retries)
		}
	})

	c.Start()

	// Keep the goroutine alive so scheduled jobs execute
	select {}
}
