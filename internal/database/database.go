// Package database opens the reminder database and applies its migrations
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/mseiser/SelfMemo2/internal/config"
)

// migrationsTable keeps the schema version apart from other services sharing the database
const migrationsTable = "selfmemo_schema_migrations"

// Open connects to the configured database and verifies the connection
func Open(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Database.Driver == config.DriverSQLite {
		// SQLite serializes writers; a single connection also keeps an in-memory database alive
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate applies all pending migrations from dir, which holds one subdirectory per driver
func Migrate(db *sql.DB, driver, dir string) error {
	var (
		instance database.Driver
		err      error
	)
	switch driver {
	case config.DriverMySQL:
		instance, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: migrationsTable})
	case config.DriverSQLite:
		instance, err = sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: migrationsTable})
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+filepath.ToSlash(filepath.Join(dir, driver)), driver, instance)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationsDir locates the migrations directory from the working directory or one of its parents
func MigrationsDir() string {
	for _, dir := range []string{"migrations", "../migrations", "../../migrations"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "migrations"
}
