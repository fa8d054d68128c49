package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"plate-service/internal/config"
	"plate-service/internal/db"
	"plate-service/internal/logger"
	"plate-service/internal/regions"
	"plate-service/internal/repository"
)

func main() {
	path := flag.String("file", "data.json", "region asset to import (.json or .xlsx)")
	dsn := flag.String("dsn", os.Getenv("DB_DSN"), "postgres DSN, defaults to $DB_DSN")
	dryRun := flag.Bool("dry-run", false, "parse and validate the asset without touching the database")
	flag.Parse()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.New(env)

	table, err := regions.LoadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("failed to read region asset")
	}
	log.Info().Str("file", *path).Int("records", table.Len()).Msg("region asset parsed")

	if *dryRun {
		return
	}
	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN or pass -dsn and retry")
		os.Exit(2)
	}

	cfg := &config.Config{
		Environment: env,
		DB:          config.DBConfig{DSN: *dsn, MaxOpenConns: 2, MaxIdleConns: 1},
	}
	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	written, err := repository.NewRegionRepository(database).ReplaceRegions(ctx, table)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to replace regions")
	}
	log.Info().Int("records", written).Msg("plate_regions replaced")
}
