package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"ghostbudget/pkg/ledger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run ./cmd/create_user <username>")
		os.Exit(2)
	}
	username := os.Args[1]

	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	dsn := os.Getenv("DB_DSN")
	if driver != ledger.DriverPostgres {
		driver = ledger.DriverSQLite
		if dsn = os.Getenv("DB_PATH"); dsn == "" {
			dsn = "./ghost_budget.db"
		}
	}
	gdb, err := ledger.Open(driver, dsn, true)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	if err := ledger.Migrate(gdb); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// no classifier needed to create users
	svc := ledger.NewService(ledger.NewStore(gdb), nil, "")
	user, err := svc.CreateUser(context.Background(), username)
	if errors.Is(err, ledger.ErrUsernameTaken) {
		existing, _ := svc.Store().GetUserByUsername(context.Background(), strings.TrimSpace(username))
		if existing != nil {
			fmt.Printf("user %s already exists (id=%d)\n", existing.Username, existing.ID)
		}
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s id=%d balance=%s\n", user.Username, user.ID, user.CurrentBalance.StringFixed(2))
}
