package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/vendora/vendora/infrastructure/adapter/persistence"
	"github.com/vendora/vendora/infrastructure/config"
	"github.com/vendora/vendora/infrastructure/service/logger"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up or down")
	steps := flag.Int("steps", 1, "number of migrations to revert in down mode (0 = all)")
	flag.Parse()

	cfg, err := config.LoadDatabase()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, dialect, err := persistence.Open(ctx, persistence.DBConfig{
		Driver: cfg.DBDriver,
		DSN:    cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      "text",
		ServiceName: "vendora-migrate",
	})
	migrator := persistence.NewMigrator(db, dialect, structuredLogger)

	switch strings.ToLower(*mode) {
	case "up":
		n, err := migrator.Up(ctx)
		if err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		log.Printf("Migration up completed successfully (%d applied)", n)
	case "down":
		n, err := migrator.Down(ctx, *steps)
		if err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		log.Printf("Migration down completed successfully (%d reverted)", n)
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}
