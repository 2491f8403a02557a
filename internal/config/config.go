package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings. Audio and image media land in
// separate buckets, each with its own policy.
type MinIOConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	AudioBucket string
	ImageBucket string
	PublicURL   string
	UseSSL      bool
}

// CaptureConfig holds the capture pipeline limits.
type CaptureConfig struct {
	MaxRecordSeconds int
	GeoTimeout       time.Duration
	AudioMaxBytes    int64
	ImageMaxBytes    int64
	ImageWhitelist   []string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Capture  CaptureConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:    getEnv("MINIO_ENDPOINT", ""),
			AccessKey:   getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:   getEnv("MINIO_SECRET_KEY", ""),
			AudioBucket: getEnv("MINIO_AUDIO_BUCKET", "report-audio"),
			ImageBucket: getEnv("MINIO_IMAGE_BUCKET", "report-images"),
			PublicURL:   getEnv("MINIO_PUBLIC_URL", ""),
			UseSSL:      getEnvBool("MINIO_USE_SSL", false),
		},
		Capture: CaptureConfig{
			MaxRecordSeconds: getEnvInt("REC_MAX_SECONDS", 30),
			GeoTimeout:       time.Duration(getEnvInt("GEO_TIMEOUT_SECONDS", 15)) * time.Second,
			AudioMaxBytes:    int64(getEnvInt("AUDIO_MAX_BYTES", 10<<20)),
			ImageMaxBytes:    int64(getEnvInt("IMAGE_MAX_BYTES", 5<<20)),
			ImageWhitelist:   []string{"image/jpeg", "image/png", "image/webp"},
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
