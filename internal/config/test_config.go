package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests.
// Without TEST_DB_DRIVER the tests run against an in-memory SQLite database.
func LoadTestConfig() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{
		Location: time.UTC,
		Dispatch: DispatchConfig{Workers: 4},
	}
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = ":memory:"

	if os.Getenv("TEST_DB_DRIVER") != DriverMySQL {
		if path := os.Getenv("TEST_DB_PATH"); path != "" {
			cfg.Database.Path = path
		}
		return cfg, nil
	}

	cfg.Database.Driver = DriverMySQL
	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}

	dbPortStr := os.Getenv("TEST_DB_PORT")
	if dbPortStr == "" {
		dbPortStr = "3306"
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "selfmemo_test"
	}

	return cfg, nil
}
