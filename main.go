package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"ghostbudget/pkg/classifier"
	"ghostbudget/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() {
	// balances go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

func main() {
	cfg := loadConfig()

	// Support a lightweight migrate command: `ghostbudget migrate`
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		gdb, err := initDB(cfg)
		if err != nil {
			log.Fatalf("failed to initialise database: %v", err)
		}
		if err := seedDB(context.Background(), ledger.NewStore(gdb), cfg.DemoUsername); err != nil {
			log.Fatal(err)
		}
		fmt.Println("migration and seeding completed")
		return
	}

	srv, err := newServer(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if len(srv.adminSecret) == 0 {
		log.Println("ADMIN_JWT_SECRET not set; update-financials is unauthenticated")
	}

	r := newRouter(srv)
	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// newServer loads the model first: the service must not start without it,
// and a bad artifact must not cost a database reset.
func newServer(cfg Config) (*server, error) {
	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
	}
	gdb, err := initDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise database: %w", err)
	}
	store := ledger.NewStore(gdb)
	if err := seedDB(context.Background(), store, cfg.DemoUsername); err != nil {
		return nil, err
	}
	return &server{
		svc:         ledger.NewService(store, model, cfg.DemoUsername),
		adminSecret: []byte(cfg.AdminJWTSecret),
	}, nil
}

// newRouter builds the engine. requestIDMiddleware does the access logging,
// so gin's own Logger is left out.
func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	setupRoutes(r, s)
	return r
}
