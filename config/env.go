package config

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadEnv loads the .env file when present. Missing files are fine in
// containerized deployments where everything comes from the environment.
func LoadEnv() {
	if err := godotenv.Load(".env"); err != nil {
		Logger.Warn("No .env file loaded, relying on process environment", zap.Error(err))
	}
}

func GetEnv(key string) string {
	return os.Getenv(key)
}
