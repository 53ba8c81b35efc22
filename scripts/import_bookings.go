package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"clinicbook/internal/booking"
	"clinicbook/internal/config"
	"clinicbook/internal/models"
	"clinicbook/internal/store"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
		inPath     = flag.String("in", "", "JSON array of bookings to import")
		mode       = flag.String("mode", string(models.ImportMerge), "import mode: merge or replace")
		outPath    = flag.String("out", "", "write an export after the import (.csv or .xlsx)")
	)
	flag.Parse()

	if *inPath == "" && *outPath == "" {
		return fmt.Errorf("nothing to do: set -in and/or -out")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opened, err := store.Open(ctx, cfg, &logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer opened.Store.Close()

	repo := booking.NewRepository(opened.Store, cfg.Store.Key, booking.WithLocation(loc), booking.WithLogger(&logger))

	if *inPath != "" {
		data, err := os.ReadFile(*inPath)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		res, err := repo.ImportJSON(ctx, string(data), models.ImportMode(*mode))
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		if !res.Success {
			return fmt.Errorf("import rejected: %w", res.Err())
		}
	}

	if *outPath != "" {
		if err := export(ctx, repo, *outPath); err != nil {
			return err
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Printf("done: total=%d today=%d pending=%d revenue=%d\n", stats.Total, stats.Today, stats.Pending, stats.Revenue)
	return nil
}

func export(ctx context.Context, repo *booking.Repository, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		if err := repo.ExportXLSX(ctx, f); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		return nil
	}

	out, err := repo.ExportCSV(ctx)
	if err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	if _, err := f.WriteString(out); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
