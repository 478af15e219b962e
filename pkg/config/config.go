package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port             string
	Env              string
	MetricsPort      string
	LogLevel         string
	JWTSecret        string
	StoreDriver      string
	MongoURI         string
	MongoDatabase    string
	PostgresUrl      string
	StoreTimeout     time.Duration
	FeedDefaultLimit int
	FeedMaxLimit     int
}

// Load reads configuration from the environment, after merging a .env file
// when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		JWTSecret:        getEnv("JWT_SECRET", "supersecretjwtkey"),
		StoreDriver:      getEnv("STORE_DRIVER", DriverMongo),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getEnv("MONGO_DATABASE", "socialmedia"),
		PostgresUrl:      getEnv("POSTGRES_URL", "postgres://localhost:5432/socialmedia?sslmode=disable"),
		StoreTimeout:     getDuration("STORE_TIMEOUT", 5*time.Second),
		FeedDefaultLimit: getInt("FEED_DEFAULT_LIMIT", 20),
		FeedMaxLimit:     getInt("FEED_MAX_LIMIT", 50),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
