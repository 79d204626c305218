package ledger

import (
	"fmt"
	"strings"

	"ghostbudget/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the ledger database. For sqlite, dsn is a file path or a
// "file:" URI; foreign keys are switched on and the pool is limited to one
// connection, which serializes writes since SQLite has no row locks.
func Open(driver, dsn string, quiet bool) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if quiet {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		if strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("postgres requires a DSN")
		}
		gdb, err = gorm.Open(postgres.Open(dsn), cfg)
	case DriverSQLite, "":
		gdb, err = gorm.Open(sqlite.Open(withForeignKeys(dsn)), cfg)
		if err == nil {
			sqlDB, dbErr := gdb.DB()
			if dbErr != nil {
				return nil, dbErr
			}
			sqlDB.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return gdb, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	return dsn + "?_foreign_keys=1"
}

// Migrate creates or updates the users and transactions tables.
func Migrate(gdb *gorm.DB) error {
	// users first so the transactions FK can be applied
	if err := gdb.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	if err := gdb.AutoMigrate(&models.Transaction{}); err != nil {
		return fmt.Errorf("migrate transactions: %w", err)
	}
	return nil
}

// Reset drops both tables and recreates them.
func Reset(gdb *gorm.DB) error {
	if err := gdb.Migrator().DropTable(&models.Transaction{}, &models.User{}); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return Migrate(gdb)
}
