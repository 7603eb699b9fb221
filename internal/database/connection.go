package database

import (
	"fmt"
	"os"
	"path/filepath"

	"workpulse/internal/config"
	"workpulse/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultDBName = "workpulse.db"
	defaultDBDir  = ".config/workpulse"
)

type DB struct {
	*gorm.DB
}

func GetDefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dbDir := filepath.Join(homeDir, defaultDBDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	return filepath.Join(dbDir, defaultDBName), nil
}

// Connect opens the store named by cfg. SQLite is the default; Postgres is
// selected with driver "postgres" and a DSN.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch cfg.Driver {
	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		return &DB{db}, nil
	default:
		dbPath := cfg.Path
		if dbPath == "" {
			var err error
			dbPath, err = GetDefaultDBPath()
			if err != nil {
				return nil, err
			}
		}
		db, err := gorm.Open(sqlite.Open(dbPath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &DB{db}, nil
	}
}

func (db *DB) Initialize() error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.WorkSession{},
		&models.ActivityEvent{},
		&models.DailyReport{},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
