package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	cfg := Load()

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.DBName)
	assert.NotEmpty(t, cfg.VisionBackend)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes())
}

func TestLoadMasterPasswordHasNoDefault(t *testing.T) {
	t.Setenv("MASTER_PASSWORD", "")
	assert.Empty(t, Load().MasterPassword)

	t.Setenv("MASTER_PASSWORD", "hunter2")
	assert.Equal(t, "hunter2", Load().MasterPassword)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_NAME", "inspections")
	t.Setenv("VISION_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("ANALYZE_TIMEOUT", "15s")
	t.Setenv("MAX_UPLOAD_MB", "4")

	cfg := Load()

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "inspections", cfg.DBName)
	assert.Equal(t, "claude", cfg.VisionBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, 15*time.Second, cfg.AnalyzeTimeout)
	assert.Equal(t, int64(4*1024*1024), cfg.MaxUploadBytes())
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ANALYZE_TIMEOUT", "soon")
	t.Setenv("MAX_UPLOAD_MB", "-3")
	t.Setenv("THUMBNAIL_CACHE_SIZE", "lots")

	cfg := Load()

	assert.Equal(t, 60*time.Second, cfg.AnalyzeTimeout)
	assert.Equal(t, 10, cfg.MaxUploadMB)
	assert.Equal(t, 256, cfg.ThumbnailCacheSize)
}
