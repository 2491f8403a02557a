package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("REC_MAX_SECONDS", "45")
	os.Setenv("GEO_TIMEOUT_SECONDS", "5")
	defer func() {
		os.Unsetenv("DB_MAX_OPEN_CONNS")
		os.Unsetenv("MINIO_USE_SSL")
		os.Unsetenv("REC_MAX_SECONDS")
		os.Unsetenv("GEO_TIMEOUT_SECONDS")
	}()

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 45, cfg.Capture.MaxRecordSeconds)
	assert.Equal(t, 5*time.Second, cfg.Capture.GeoTimeout)
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("REC_MAX_SECONDS")
	os.Unsetenv("AUDIO_MAX_BYTES")
	os.Unsetenv("IMAGE_MAX_BYTES")

	cfg := Load()

	assert.Equal(t, 30, cfg.Capture.MaxRecordSeconds)
	assert.Equal(t, int64(10<<20), cfg.Capture.AudioMaxBytes)
	assert.Equal(t, int64(5<<20), cfg.Capture.ImageMaxBytes)
	assert.Equal(t, "report-audio", cfg.MinIO.AudioBucket)
	assert.Equal(t, "report-images", cfg.MinIO.ImageBucket)
	assert.Contains(t, cfg.Capture.ImageWhitelist, "image/jpeg")
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}
