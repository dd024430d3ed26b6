package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
)

const (
	DefaultPort        = "8080"
	DefaultTimezone    = "Asia/Ho_Chi_Minh"
	DefaultSQLitePath  = "banking_portal.db"
	DefaultPollSpec    = "@every 10s"
	DefaultBankAPIURL  = "http://localhost:8080/api"
	DefaultDBName      = "banking_portal"
	DefaultIdleTimeout = 15 * time.Minute
	DefaultMaxSessions = 1000
	StorageDriverMem   = "memory"
	StorageDriverLite  = "sqlite"
	StorageDriverMySQL = "mysql"
)

// MySQL holds the DB_* settings; FullDSN, when set, takes precedence over the parts.
type MySQL struct {
	Host    string
	Port    string
	User    string
	Pass    string
	Name    string
	FullDSN string
}

type Config struct {
	AppEnv        string
	Port          string
	LogLevel      string
	Timezone      string
	StorageDriver string
	SQLitePath    string
	BankAPIURL    string
	BankAPIToken  string
	PollSpec      string

	// SessionIdleTimeout and MaxSessions bound the per-token pollers.
	SessionIdleTimeout time.Duration
	MaxSessions        int

	MySQL MySQL
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load env variables: %w", err)
	}

	cfg := Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("APP_PORT", DefaultPort),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Timezone:      getEnv("APP_TIMEZONE", DefaultTimezone),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverLite)),
		SQLitePath:    getEnv("SQLITE_PATH", DefaultSQLitePath),
		BankAPIURL:    strings.TrimRight(getEnv("BANK_API_URL", DefaultBankAPIURL), "/"),
		BankAPIToken:  os.Getenv("BANK_API_TOKEN"),
		PollSpec:      getEnv("NOTIFICATION_POLL_SPEC", DefaultPollSpec),
		MySQL: MySQL{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Pass:    os.Getenv("DB_PASS"),
			Name:    getEnv("DB_NAME", DefaultDBName),
			FullDSN: os.Getenv("FULL_DSN"),
		},
	}

	idle, err := time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", DefaultIdleTimeout.String()))
	if err != nil || idle <= 0 {
		return Config{}, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT: %q", os.Getenv("SESSION_IDLE_TIMEOUT"))
	}
	cfg.SessionIdleTimeout = idle

	maxSessions, err := strconv.Atoi(getEnv("MAX_SESSIONS", strconv.Itoa(DefaultMaxSessions)))
	if err != nil || maxSessions <= 0 {
		return Config{}, fmt.Errorf("invalid MAX_SESSIONS: %q", os.Getenv("MAX_SESSIONS"))
	}
	cfg.MaxSessions = maxSessions

	switch cfg.StorageDriver {
	case StorageDriverMem, StorageDriverLite, StorageDriverMySQL:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER: %q", cfg.StorageDriver)
	}

	return cfg, nil
}

func getEnv(key string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
