package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     int
	RedisPassword string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// CacheKey encrypts cached payloads at rest.
	CacheKey string

	// Bootstrap superadmin, created on first start.
	SuperAdminUsername string
	SuperAdminEmail    string
	SuperAdminPassword string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":3004"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "taskboard"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		JWTSecret:  getEnv("JWT_SECRET", "secret"),
		AccessTTL:  getEnvDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTTL: getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		CacheKey: getEnv("CACHE_KEY", "taskboard-cache-key"),

		SuperAdminUsername: getEnv("SUPERADMIN_USERNAME", "superadmin"),
		SuperAdminEmail:    getEnv("SUPERADMIN_EMAIL", "superadmin@localhost"),
		SuperAdminPassword: getEnv("SUPERADMIN_PASSWORD", "changeme"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
