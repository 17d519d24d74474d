package config

import (
	"os"
	"strconv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort      string
	MySQLDSN        string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	JWTSecret       string
	MailHost        string
	MailPort        int
	MailUsername    string
	MailPassword    string
	MailFrom        string
	AvatarUploadURL string
	AvatarAPIKey    string
	SwaggerHost     string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8000"),
		MySQLDSN:        getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/contacts?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		MailHost:        getEnv("MAIL_HOST", "localhost"),
		MailPort:        getEnvInt("MAIL_PORT", 587),
		MailUsername:    os.Getenv("MAIL_USERNAME"),
		MailPassword:    os.Getenv("MAIL_PASSWORD"),
		MailFrom:        getEnv("MAIL_FROM", "noreply@contactbook.local"),
		AvatarUploadURL: getEnv("AVATAR_UPLOAD_URL", "https://image-host.local/upload"),
		AvatarAPIKey:    os.Getenv("AVATAR_API_KEY"),
		SwaggerHost:     os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
