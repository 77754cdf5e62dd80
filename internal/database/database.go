package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the SQLite handle together with the schema bootstrap. All
// repository methods hang off it; transactions are used wherever a booking
// touches both the appointments table and the slot markers.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// busy_timeout makes concurrent writers queue instead of failing with
	// SQLITE_BUSY; foreign_keys is off by default in SQLite.
	dsn := path + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS clients (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            phone TEXT,
            email_verified BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS providers (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            gender TEXT,
            age INTEGER,
            phone TEXT,
            email TEXT,
            cpf TEXT,
            cep TEXT,
            street TEXT,
            number TEXT,
            district TEXT,
            city TEXT NOT NULL,
            state TEXT NOT NULL,
            photo TEXT,
            hours_start TEXT NOT NULL,
            hours_end TEXT NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS provider_cities (
            provider_id TEXT NOT NULL REFERENCES providers(id) ON DELETE CASCADE,
            city TEXT NOT NULL,
            PRIMARY KEY (provider_id, city)
        )`,

		`CREATE TABLE IF NOT EXISTS provider_services (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            provider_id TEXT NOT NULL REFERENCES providers(id) ON DELETE CASCADE,
            description TEXT NOT NULL,
            price REAL NOT NULL
        )`,

		// One marker per (provider, date, time). The UNIQUE constraint is the
		// last line of defense against double booking under concurrency; the
		// transactional pre-check exists to return a typed error instead of a
		// raw constraint violation.
		`CREATE TABLE IF NOT EXISTS provider_slots (
            provider_id TEXT NOT NULL REFERENCES providers(id),
            date TEXT NOT NULL,
            time TEXT NOT NULL,
            client_id TEXT NOT NULL,
            appointment_id TEXT NOT NULL,
            PRIMARY KEY (provider_id, date, time)
        )`,

		`CREATE TABLE IF NOT EXISTS appointments (
            id TEXT PRIMARY KEY,
            provider_id TEXT NOT NULL,
            provider_name TEXT NOT NULL,
            client_id TEXT NOT NULL,
            date TEXT NOT NULL,
            time TEXT NOT NULL,
            service_description TEXT NOT NULL,
            service_price REAL NOT NULL,
            payment_method TEXT NOT NULL,
            notes TEXT,
            status TEXT NOT NULL DEFAULT 'confirmed',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS favorites (
            client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
            provider_id TEXT NOT NULL REFERENCES providers(id) ON DELETE CASCADE,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (client_id, provider_id)
        )`,

		`CREATE TABLE IF NOT EXISTS verification_tokens (
            token TEXT PRIMARY KEY,
            client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
            purpose TEXT NOT NULL,
            expires_at DATETIME NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS mail_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            mail_type TEXT NOT NULL,
            recipient TEXT NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_providers_city ON providers(city)`,
		`CREATE INDEX IF NOT EXISTS idx_providers_is_active ON providers(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_cities_city ON provider_cities(city)`,
		`CREATE INDEX IF NOT EXISTS idx_provider_slots_date ON provider_slots(provider_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_client ON appointments(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_provider_date ON appointments(provider_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_mail_queue_status ON mail_queue(status)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_client ON verification_tokens(client_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}
