// Command migrate applies or rolls back the embedded goose migrations.
//
// Usage:
//
//	migrate up|down|status
//
// Requires DATABASE_DSN (or a config file selected by CONFIG_PATH).
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/adapter/postgres"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/app"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/internal/config"
	"github.com/ark-dvd/wdi-ltd-israel-sub001/migrations"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: migrate up|down|status")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.DSN == "" {
		log.Fatal("DATABASE_DSN is required")
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "up":
		err = postgres.Migrate(ctx, cfg.Database.DSN, migrations.FS, logger)
	case "down":
		err = postgres.MigrateDown(ctx, cfg.Database.DSN, migrations.FS)
	case "status":
		statuses, serr := postgres.MigrationStatus(ctx, cfg.Database.DSN, migrations.FS)
		for _, s := range statuses {
			fmt.Printf("%-6d %-8s %s\n", s.Source.Version, s.State, s.Source.Path)
		}
		err = serr
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
	if err != nil {
		logger.Error("migrate failed", slog.String("command", os.Args[1]), slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("migrate completed", slog.String("command", os.Args[1]))
}
