package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Identity IdentityConfig
	OAuth    OAuthConfig
}

type AppConfig struct {
	Port               string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
	SessionTTL         time.Duration
	ArtifactTTL        time.Duration
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type IdentityConfig struct {
	APIKey   string
	BaseURL  string
	TokenURL string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SessionTTL:         time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 1440)) * time.Minute,
			ArtifactTTL:        time.Duration(getEnvAsInt("ARTIFACT_TTL_MINUTES", 60)) * time.Minute,
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:5001"),
			Timeout: time.Duration(getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 120)) * time.Second,
		},
		Identity: IdentityConfig{
			APIKey:   getEnv("IDENTITY_API_KEY", ""),
			BaseURL:  getEnv("IDENTITY_BASE_URL", ""),
			TokenURL: getEnv("IDENTITY_TOKEN_URL", ""),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
