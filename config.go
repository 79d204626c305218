package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment (and ./.env if present).
type Config struct {
	Port           string
	DBDriver       string
	DBPath         string
	DBDSN          string
	DBReset        bool
	DBAutoMigrate  bool
	ModelPath      string
	DemoUsername   string
	AdminJWTSecret string
}

func loadConfig() Config {
	// existing environment variables win over .env entries
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}
	return Config{
		Port:           getEnv("PORT", "8000"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:         getEnv("DB_PATH", "./ghost_budget.db"),
		DBDSN:          getEnv("DB_DSN", ""),
		DBReset:        getBool("DB_RESET", true),
		DBAutoMigrate:  getBool("DB_AUTO_MIGRATE", true),
		ModelPath:      getEnv("MODEL_PATH", "spending_model.json"),
		DemoUsername:   getEnv("DEMO_USERNAME", "demo_user"),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "no", "off":
		return false
	case "yes", "on":
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid boolean %s=%q, using %v", key, v, def)
		return def
	}
	return b
}
