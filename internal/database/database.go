package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/feedbackwall/internal/feedback"
	"github.com/MarcoPoloResearchLab/feedbackwall/internal/profiles"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	// DriverSQLite selects the embedded pure-Go SQLite driver.
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL driver.
	DriverPostgres = "postgres"

	sqliteForeignKeysPragma = "_pragma=foreign_keys(1)"
)

var (
	// ErrMissingDSN indicates the connection string was empty.
	ErrMissingDSN = errors.New("database dsn is required")
	// ErrUnsupportedDriver indicates the configured driver is neither sqlite nor postgres.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Config selects the store backing profiles, pages and feedback.
type Config struct {
	Driver string
	DSN    string
}

// Open connects to the configured store and brings the schema up to date.
func Open(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, logger); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("database initialized", zap.String("driver", normalizedDriver(cfg.Driver)))
	}
	return db, nil
}

// Migrate creates the tables and runs the named data migrations that have not been applied yet.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(&profiles.Profile{}, &feedback.Page{}, &feedback.Entry{}, &migrationRecord{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return applyMigrations(db, logger)
}

func connect(cfg Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, ErrMissingDSN
	}
	gormConfig := &gorm.Config{TranslateError: true}

	switch normalizedDriver(cfg.Driver) {
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(sqliteDSN(dsn)), gormConfig)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case DriverPostgres:
		return gorm.Open(postgres.Open(dsn), gormConfig)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func normalizedDriver(driver string) string {
	normalized := strings.ToLower(strings.TrimSpace(driver))
	if normalized == "" {
		return DriverSQLite
	}
	return normalized
}

// sqliteDSN enables foreign key enforcement so feedback rows cascade with their page.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + sqliteForeignKeysPragma
}
