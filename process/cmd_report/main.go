package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"ghostbudget/pkg/ledger"
	"ghostbudget/process/report"
)

func main() {
	username := flag.String("username", "demo_user", "username to report for")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching rows")
	pdfPath := flag.String("pdf", "", "also write a PDF statement to this path")
	flag.Parse()

	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	dsn := os.Getenv("DB_DSN")
	if driver == ledger.DriverPostgres && dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	if driver != ledger.DriverPostgres {
		driver = ledger.DriverSQLite
		if dsn = os.Getenv("DB_PATH"); dsn == "" {
			dsn = "./ghost_budget.db"
		}
	}
	gdb, err := ledger.Open(driver, dsn, true)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	rep, err := report.Build(context.Background(), gdb, *username, *month)
	if err != nil {
		log.Fatal(err)
	}
	report.Print(os.Stdout, rep, *list)
	if *pdfPath != "" {
		if err := report.WritePDF(rep, *pdfPath); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
		fmt.Printf("statement written to %s\n", *pdfPath)
	}
}
