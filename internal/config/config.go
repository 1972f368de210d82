package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DB             DBConfig
	MigrationsPath string

	MongoURI      string
	MongoDatabase string

	UploadDir     string
	StoreUploads  bool
	MaxUploadSize int64

	MaxImagePixels int
	WorkerPoolSize int
	DetectTimeout  time.Duration
}

type DBConfig struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "leafscan"),
		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		StoreUploads:   getEnv("STORE_UPLOADS", "false") == "true",
	}

	var err error
	if cfg.MaxUploadSize, err = strconv.ParseInt(getEnv("MAX_UPLOAD_SIZE", "20971520"), 10, 64); err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxImagePixels, err = strconv.Atoi(getEnv("MAX_IMAGE_PIXELS", "40000000")); err != nil {
		return nil, fmt.Errorf("invalid MAX_IMAGE_PIXELS: %w", err)
	}
	if cfg.WorkerPoolSize, err = strconv.Atoi(getEnv("WORKER_POOL_SIZE", "0")); err != nil {
		return nil, fmt.Errorf("invalid WORKER_POOL_SIZE: %w", err)
	}
	if cfg.DetectTimeout, err = time.ParseDuration(getEnv("DETECT_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid DETECT_TIMEOUT: %w", err)
	}

	cfg.DB.Type = getEnv("DB_TYPE", "sqlite")
	switch cfg.DB.Type {
	case "postgres":
		cfg.DB.Host = getEnv("DB_HOST", "localhost")
		if cfg.DB.Port, err = strconv.Atoi(getEnv("DB_PORT", "5432")); err != nil {
			return nil, fmt.Errorf("invalid DB_PORT: %w", err)
		}
		cfg.DB.User = getEnv("DB_USER", "leafscan")
		cfg.DB.Password = getEnv("DB_PASSWORD", "leafscan_dev")
		cfg.DB.Name = getEnv("DB_NAME", "leafscan")
	case "sqlite":
		cfg.DB.SQLitePath = getEnv("DB_PATH", "./leafscan.db")
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", cfg.DB.Type)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
