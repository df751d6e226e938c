package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"ms-bulletin/internal/config"
	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/store/migrations"
)

func main() {
	var (
		seed = flag.Bool("seed", false, "also insert the sample events")
		down = flag.Bool("down", false, "roll back every migration")
		to   = flag.Int("to", -1, "migrate to an exact version")
		dsn  = flag.String("dsn", "", "PostgreSQL DSN (defaults to POSTGRES_DSN)")
	)
	flag.Parse()

	_ = godotenv.Load(".env.local")
	cfg := config.Load()
	log := logger.NewLogger(logger.Options{MinLevel: logger.ParseLevel(cfg.Log.Level)})
	defer log.Close()

	if *dsn == "" {
		*dsn = cfg.Store.PostgresDSN
	}
	if *dsn == "" {
		log.Fatal("MIGRATE", "POSTGRES_DSN is not set")
	}

	sqldb, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to open database: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to connect to database: %v", err))
	}

	runner := migrations.NewRunner(sqldb, migrations.MigrateOptions{SeedData: *seed}, log)
	if err := run(runner, *down, *to); err != nil {
		_ = runner.Close()
		log.Error("MIGRATE", err.Error())
		os.Exit(1)
	}
	if err := runner.Close(); err != nil {
		log.Warn("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", "✅ Done.")
}

func run(r *migrations.Runner, down bool, to int) error {
	switch {
	case down:
		return r.MigrateDown()
	case to >= 0:
		return r.MigrateTo(uint(to))
	default:
		return r.RunMigrations()
	}
}
