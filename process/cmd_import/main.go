package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"ghostbudget/pkg/classifier"
	"ghostbudget/pkg/ledger"
	"ghostbudget/process/importer"
)

func main() {
	dir := flag.String("dir", "./imports", "directory holding CSV expense files")
	userID := flag.Uint("user-id", 0, "user to book expenses for (0 = demo user)")
	workers := flag.Int("workers", runtime.NumCPU(), "number of concurrent file workers")
	watch := flag.Bool("watch", false, "keep watching the directory for new files")
	dryRun := flag.Bool("dry-run", false, "classify rows without booking them")
	verbose := flag.Bool("verbose", false, "log every row")
	modelPath := flag.String("model", envOr("MODEL_PATH", "spending_model.json"), "classifier artifact")
	flag.Parse()

	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	dsn := os.Getenv("DB_DSN")
	if driver == ledger.DriverPostgres && dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}
	if driver != ledger.DriverPostgres {
		driver = ledger.DriverSQLite
		dsn = envOr("DB_PATH", "./ghost_budget.db")
	}
	gdb, err := ledger.Open(driver, dsn, true)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	if err := ledger.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	model, err := classifier.Load(*modelPath)
	if err != nil {
		log.Fatalf("load model: %v", err)
	}

	svc := ledger.NewService(ledger.NewStore(gdb), model, envOr("DEMO_USERNAME", "demo_user"))
	im := &importer.Importer{Svc: svc, Dir: *dir, DryRun: *dryRun, Verbose: *verbose}
	if *userID != 0 {
		id := *userID
		im.UserID = &id
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files := importer.ListFiles(*dir)
	log.Printf("Found %d CSV files in %s", len(files), *dir)
	var booked, failed int
	for _, r := range im.Run(ctx, files, *workers) {
		booked += r.Imported
		failed += r.Failed
		if r.Err != nil {
			log.Printf("ERROR %s: %v", r.Name, r.Err)
		}
	}
	log.Printf("Done: files=%d booked=%d failed=%d", len(files), booked, failed)

	if *watch {
		if err := im.Watch(ctx, *workers); err != nil {
			log.Fatalf("watch: %v", err)
		}
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
