package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string

	// Generation
	AnthropicAPIKey string
	GenerationModel string

	// Editor
	AutosaveDebounce time.Duration
	TemplatesPath    string

	// Editor lock
	RedisURL string

	// Export artifacts
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Dev auth bypass; ignored when a JWKS URL is set
	DevUserID   string
	DevTenantID string

	// Empty disables file logging
	LogDir  string
	LogKeep int

	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		GenerationModel: getEnv("GENERATION_MODEL", "lorem-dev"),

		AutosaveDebounce: getDuration("AUTOSAVE_DEBOUNCE", 3*time.Second),
		TemplatesPath:    getEnv("TEMPLATES_PATH", "config/templates.yaml"),

		RedisURL: getEnv("REDIS_URL", ""),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "document-exports"),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",

		DevUserID:   getEnv("DEV_USER_ID", "dev-user"),
		DevTenantID: getEnv("DEV_TENANT_ID", "dev-tenant"),

		LogDir:  getEnv("LOG_DIR", ""),
		LogKeep: getInt("LOG_KEEP", 5),

		// Debug defaults to true outside prod
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are taken as seconds
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
