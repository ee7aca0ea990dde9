package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends
const (
	BackendJSONBin  = "jsonbin"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
	BackendMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Corpo    CorpoConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port           int
	LoginRateLimit float64 // requests per second per client IP on auth routes
	LoginRateBurst int
}

// StoreConfig selects and tunes the document store
type StoreConfig struct {
	Backend      string
	JSONBinURL   string
	JSONBinID    string
	JSONBinKey   string
	FilePath     string
	DocumentName string
	Timeout      time.Duration
	CacheTTL     time.Duration
	MaxBytes     int
	CatalogPath  string
}

// DatabaseConfig holds the database configuration for the SQL backends
type DatabaseConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// CorpoConfig holds the codes used until the document defines its own
type CorpoConfig struct {
	DefaultAdminCode string
	DefaultCorpoCode string
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			LoginRateLimit: getEnvAsFloat("LOGIN_RATE_LIMIT", 1),
			LoginRateBurst: getEnvAsInt("LOGIN_RATE_BURST", 5),
		},
		Store: StoreConfig{
			Backend:      getEnv("STORE_BACKEND", BackendJSONBin),
			JSONBinURL:   getEnv("JSONBIN_URL", "https://api.jsonbin.io/v3/b"),
			JSONBinID:    getEnv("JSONBIN_ID", ""),
			JSONBinKey:   getEnv("JSONBIN_KEY", ""),
			FilePath:     getEnv("FILE_STORE_PATH", "data/fleet.json.lz4"),
			DocumentName: getEnv("DOCUMENT_NAME", "fleet"),
			Timeout:      getEnvAsDuration("STORE_TIMEOUT", 10*time.Second),
			CacheTTL:     getEnvAsDuration("STORE_CACHE_TTL", 5*time.Minute),
			MaxBytes:     getEnvAsInt("STORE_MAX_BYTES", 0),
			CatalogPath:  getEnv("CATALOG_PATH", ""),
		},
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			Username:   getEnv("DB_USERNAME", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			DBName:     getEnv("DB_NAME", "fleet"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "data/fleet.db"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-here"),
			TokenTTL:  getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		},
		Corpo: CorpoConfig{
			DefaultAdminCode: getEnv("DEFAULT_ADMIN_CODE", "9999"),
			DefaultCorpoCode: getEnv("DEFAULT_CORPO_CODE", "APQ8M3"),
		},
	}

	// Without a key the remote bin is unusable: run offline on a local file
	if cfg.Store.Backend == BackendJSONBin && (cfg.Store.JSONBinKey == "" || cfg.Store.JSONBinID == "") {
		cfg.Store.Backend = BackendFile
	}
	return cfg
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
