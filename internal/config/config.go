package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	defaultMaxConns        = 25
	defaultConnMaxLifetime = 5 * time.Minute
)

// Config holds all configuration for the ledger service
type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	ServerPort      string
	StorageBackend  string
	AutoMigrate     bool
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables with default values
func Load() *Config {
	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "bankify"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", defaultMaxConns),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", defaultMaxConns),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", defaultConnMaxLifetime),

		ServerPort:      getEnv("SERVER_PORT", "8080"),
		StorageBackend:  strings.ToLower(getEnv("STORAGE_BACKEND", StoragePostgres)),
		AutoMigrate:     getEnvBool("AUTO_MIGRATE", true),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// GetDBConnectionString returns a key=value DSN understood by both lib/pq and pgx.
func (c *Config) GetDBConnectionString() string {
	sslMode := c.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode)
}

// Driver returns the database/sql driver name, defaulting to lib/pq.
func (c *Config) Driver() string {
	if c.DBDriver == "" {
		return "postgres"
	}
	return c.DBDriver
}

// PoolSettings returns the connection pool limits, with unset values
// replaced by the defaults.
func (c *Config) PoolSettings() (maxOpen, maxIdle int, maxLifetime time.Duration) {
	maxOpen, maxIdle, maxLifetime = c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBConnMaxLifetime
	if maxOpen <= 0 {
		maxOpen = defaultMaxConns
	}
	if maxIdle <= 0 {
		maxIdle = maxOpen
	}
	if maxLifetime <= 0 {
		maxLifetime = defaultConnMaxLifetime
	}
	return maxOpen, maxIdle, maxLifetime
}

func (c *Config) UsesMemoryStorage() bool {
	return c.StorageBackend == StorageMemory
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// getEnv retrieves an environment variable or returns a default value if not set
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return value
}
