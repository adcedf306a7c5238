package configs

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type ENV struct {
	AppEnv   string
	Port     string
	AppURL   string
	LogLevel string

	DBDriver   string
	DBDSN      string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	AppAuthKey string
	AppEncKey  string

	EmailHost     string
	EmailPort     string
	EmailUsername string
	EmailPassword string
	EmailFrom     string
	NotifyEmail   string

	CacheURL string
	NoCache  bool

	BrokerURL  string
	JobWorkers int

	MediaRoot         string
	PaginationSize    int
	APIPaginationSize int
}

func (e ENV) IsProduction() bool {
	return e.AppEnv == "production"
}

func LoadEnv() ENV {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	username := os.Getenv("EMAIL_USERNAME")
	return ENV{
		AppEnv:   envString("APP_ENV", "development"),
		Port:     envString("APP_PORT", ":8000"),
		AppURL:   envString("APP_URL", "http://localhost:8000"),
		LogLevel: envString("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(envString("DB_DRIVER", "mysql")),
		DBDSN:      os.Getenv("DB_DSN"),
		DBHost:     envString("DB_HOST", "localhost"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),

		AppAuthKey: os.Getenv("APP_AUTH_KEY"),
		AppEncKey:  os.Getenv("APP_ENC_KEY"),

		EmailHost:     os.Getenv("EMAIL_HOST"),
		EmailPort:     envString("EMAIL_PORT", "587"),
		EmailUsername: username,
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		EmailFrom:     envString("EMAIL_FROM", username),
		NotifyEmail:   os.Getenv("NOTIFY_EMAIL"),

		CacheURL: os.Getenv("CACHE_URL"),
		NoCache:  envBool("NO_CACHE", false),

		BrokerURL:  os.Getenv("BROKER_URL"),
		JobWorkers: envInt("JOB_WORKERS", 2),

		MediaRoot:         envString("MEDIA_ROOT", "mediafiles"),
		PaginationSize:    envInt("PAGINATION_SIZE", 9),
		APIPaginationSize: envInt("API_PAGINATION_SIZE", 5),
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid integer setting, using default")
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid boolean setting, using default")
		return fallback
	}
	return v
}
