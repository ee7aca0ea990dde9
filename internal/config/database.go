package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rongwang/pioneer-fleet/internal/repository"
	_ "modernc.org/sqlite" // SQLite driver
)

// OpenBackend builds the document backend selected by the configuration
func OpenBackend(cfg *Config) (repository.Backend, error) {
	switch cfg.Store.Backend {
	case BackendJSONBin:
		client := &http.Client{Timeout: cfg.Store.Timeout}
		return repository.NewJSONBinBackend(client, cfg.Store.JSONBinURL, cfg.Store.JSONBinID, cfg.Store.JSONBinKey), nil
	case BackendPostgres, BackendSQLite:
		db, err := SetupDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLBackend(db, cfg.Store.DocumentName), nil
	case BackendFile:
		backend, err := repository.NewFileBackend(cfg.Store.FilePath)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case BackendMemory:
		return repository.NewMemoryBackend(0), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	driver, dsn := "postgres", cfg.Database.GetDSN()
	if cfg.Store.Backend == BackendSQLite {
		driver, dsn = "sqlite", cfg.Database.SQLitePath
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	if driver == "sqlite" {
		// a single connection keeps in-memory databases alive and serializes writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			name VARCHAR(255) PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	return err
}
