package cli

import (
	"database/sql"
	"fmt"

	"github.com/mseiser/SelfMemo2/internal/config"
	"github.com/mseiser/SelfMemo2/internal/database"
	"github.com/mseiser/SelfMemo2/internal/logger"
)

// environment is the configuration and database shared by commands that touch storage
type environment struct {
	cfg *config.Config
	db  *sql.DB
}

// openEnvironment loads the configuration from the process environment and connects to the database
func openEnvironment() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, db: db}, nil
}

func (e *environment) Close() {
	logger.Sync()
	e.db.Close()
}
