package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken  string
	OwnerID   int64
	OwnerName string

	DataFile string

	HealthAddr string
}

func Load() *Config {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	return &Config{
		BotToken:  os.Getenv("BOT_TOKEN"),
		OwnerID:   getEnvInt64("OWNER_ID"),
		OwnerName: getEnvOrDefault("OWNER_NAME", "Owner"),

		DataFile: getEnvOrDefault("DATA_FILE", "data.json"),

		HealthAddr: getEnvOrDefault("HEALTH_ADDR", "0.0.0.0:8080"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string) int64 {
	value, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
