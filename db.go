package main

import (
	"context"
	"fmt"
	"log"

	"ghostbudget/pkg/ledger"

	"gorm.io/gorm"
)

// initDB opens the ledger database. With DB_RESET the tables are dropped and
// recreated, so nothing survives a restart; otherwise DB_AUTO_MIGRATE
// controls schema migration.
func initDB(cfg Config) (*gorm.DB, error) {
	dsn := cfg.DBPath
	if cfg.DBDriver == ledger.DriverPostgres {
		dsn = cfg.DBDSN
	}
	gdb, err := ledger.Open(cfg.DBDriver, dsn, false)
	if err != nil {
		return nil, err
	}
	switch {
	case cfg.DBReset:
		if err := ledger.Reset(gdb); err != nil {
			return nil, fmt.Errorf("reset database: %w", err)
		}
		log.Printf("database reset (%s)", cfg.DBDriver)
	case cfg.DBAutoMigrate:
		if err := ledger.Migrate(gdb); err != nil {
			return nil, err
		}
	}
	return gdb, nil
}

// seedDB makes sure the demo user exists.
func seedDB(ctx context.Context, store *ledger.Store, username string) error {
	u, err := store.EnsureUser(ctx, username)
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	log.Printf("demo user %q id=%d", u.Username, u.ID)
	return nil
}
