package config

import (
	"os"
	"strconv"
	"time"

	"github.com/yukikurage/printshop-manager/internal/constants"
)

// Store backends for the sheet service.
const (
	StoreBackendSQL    = "sql"
	StoreBackendSheets = "sheets"
)

// Key-value backends for the back office.
const (
	KVBackendSQLite = "sqlite"
	KVBackendRedis  = "redis"
)

type Config struct {
	// Sheet service
	Port              string
	SecretToken       string
	StoreBackend      string
	WriteLockTimeout  time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// SQL tabular store
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string

	// Google Sheets tabular store
	SpreadsheetID         string
	GoogleCredentialsFile string

	// Back office
	BackofficePort string
	KVBackend      string
	KVPath         string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	SessionStore   string
	SessionSecret  string
	OpenAIAPIKey   string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	GinMode  string
	LogLevel string
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8080"),
		SecretToken:       getEnv("SECRET_TOKEN", ""),
		StoreBackend:      getEnv("STORE_BACKEND", StoreBackendSQL),
		WriteLockTimeout:  getDuration("WRITE_LOCK_TIMEOUT", constants.DefaultWriteLockTimeout),
		RateLimitRequests: getInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getDuration("RATE_LIMIT_WINDOW", time.Minute),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "printshop"),
		DBPassword: getEnv("DB_PASSWORD", "printshop"),
		DBName:     getEnv("DB_NAME", "printshop"),
		DBPath:     getEnv("DB_PATH", "printshop.db"),

		SpreadsheetID:         getEnv("SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),

		BackofficePort: getEnv("BACKOFFICE_PORT", "8081"),
		KVBackend:      getEnv("KV_BACKEND", KVBackendSQLite),
		KVPath:         getEnv("KV_PATH", "backoffice.db"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),
		PollInterval:   getDuration("POLL_INTERVAL", constants.DefaultPollInterval),
		SessionStore:   getEnv("SESSION_STORE", "cookie"),
		SessionSecret:  getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return defaultValue
}

// getDuration accepts Go durations ("20s") or a bare number of seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if i, err := strconv.Atoi(value); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}
