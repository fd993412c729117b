package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yangtinglin69/saas/internal/db/models"
)

// Config holds database configuration.
type Config struct {
	Driver      string // "postgres" or "sqlite"
	Host        string // for postgres
	Port        int    // for postgres
	Database    string // database name for postgres, file path for sqlite
	Username    string // for postgres
	Password    string // for postgres
	SSLMode     string // for postgres
	SQLLogLevel string // silent, error, warn, info
}

// Connect establishes a connection to the database.
func Connect(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		// cfg.Database is a file path, e.g. "saas.db"
		dialector = sqlite.Open(cfg.Database + "?_time_format=sqlite")

	case "postgres", "postgresql":
		dsn := fmt.Sprintf(
			"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password, cfg.SSLMode,
		)
		dialector = postgres.Open(dsn)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres)", cfg.Driver)
	}

	return Open(dialector, cfg.SQLLogLevel)
}

// Open opens a gorm handle on an already built dialector. Tests use it to
// wrap a sqlmock connection.
func Open(dialector gorm.Dialector, sqlLogLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(parseLogLevel(sqlLogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// AutoMigrate runs automatic migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{}, // Must be first (parent table)
		&models.Domain{},
		&models.Site{},
		&models.Module{},
		&models.Product{},
		&models.Post{},
		&models.APIKey{},
	)
}
