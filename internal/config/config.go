package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	Server   ServerConfig
	CORS     CORSConfig
	Upload   UploadConfig
	AI       AIConfig
	Credit   CreditConfig
	SMTP     SMTPConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type ServerConfig struct {
	Port    string
	GinMode string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type UploadConfig struct {
	Path        string
	MaxFileSize int64
}

type AIConfig struct {
	ServerURL string
	Timeout   time.Duration
}

type CreditConfig struct {
	PerAnalysis int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "boneage"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
			Expiry: parseDuration(getEnv("JWT_EXPIRES_IN", "168h"), 168*time.Hour),
		},
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Upload: UploadConfig{
			Path:        getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: parseInt64(getEnv("MAX_FILE_SIZE", "10485760"), 10485760),
		},
		AI: AIConfig{
			ServerURL: getEnv("AI_SERVER_URL", "http://localhost:5000"),
			Timeout:   parseDuration(getEnv("AI_TIMEOUT", "120s"), 120*time.Second),
		},
		Credit: CreditConfig{
			PerAnalysis: parseInt(getEnv("CREDIT_PER_ANALYSIS", "1"), 1),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     parseInt(getEnv("SMTP_PORT", "587"), 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@boneage.local"),
		},
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		fmt.Printf("Warning: Invalid duration format '%s', using default\n", s)
		return defaultValue
	}
	return duration
}

func parseInt(s string, defaultValue int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		fmt.Printf("Warning: Invalid integer '%s', using default\n", s)
		return defaultValue
	}
	return v
}

func parseInt64(s string, defaultValue int64) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Printf("Warning: Invalid integer '%s', using default\n", s)
		return defaultValue
	}
	return v
}

func parseOrigins(s string) []string {
	if s == "" {
		return []string{}
	}

	origins := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			origins = append(origins, part)
		}
	}

	return origins
}
