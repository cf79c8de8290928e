package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr         string
	DBName             string
	VisionBackend      string
	GeminiAPIKey       string
	GeminiModel        string
	ClaudeAPIKey       string
	ClaudeModel        string
	OllamaHost         string
	OllamaModel        string
	AnalyzeTimeout     time.Duration
	MaxUploadMB        int
	SeedFile           string
	MasterPassword     string
	ThumbnailCacheSize int
	LogLevel           string
	LogFormat          string
	LogFile            string
}

func Load() *Config {
	return &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		DBName:             getEnv("DB_NAME", "clandphoto"),
		VisionBackend:      getEnv("VISION_BACKEND", "gemini"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ClaudeAPIKey:       getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:        getEnv("CLAUDE_MODEL", "claude-opus-4-6"),
		OllamaHost:         getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "llava"),
		AnalyzeTimeout:     getDuration("ANALYZE_TIMEOUT", 60*time.Second),
		MaxUploadMB:        getInt("MAX_UPLOAD_MB", 10),
		SeedFile:           getEnv("SEED_FILE", ""),
		MasterPassword:     getEnv("MASTER_PASSWORD", ""),
		ThumbnailCacheSize: getInt("THUMBNAIL_CACHE_SIZE", 256),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		LogFile:            getEnv("LOG_FILE", ""),
	}
}

// MaxUploadBytes is the largest photo accepted by the collection workflow.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
