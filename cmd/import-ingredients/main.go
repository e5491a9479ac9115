// Command import-ingredients seeds the ingredient catalog from a CSV file
// of "name,measurement_unit" rows. Rows already present are skipped, so the
// import can be rerun safely.
//
//	import-ingredients data/ingredients.csv
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/foodgram/foodgram/internal/config"
	"github.com/foodgram/foodgram/internal/database"
	"github.com/foodgram/foodgram/internal/plugins/ingredients"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(os.Args[1:]); err != nil {
		slog.Error("ingredient import failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import-ingredients <path.csv>")
	}
	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Errorf("%s is not a .csv file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to MariaDB: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := ingredients.NewIngredientService(ingredients.NewIngredientRepository(db))
	res, err := service.Import(ctx, f)
	if err != nil {
		return err
	}

	slog.Info("ingredients imported",
		slog.String("file", path),
		slog.Int("created", res.Created),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("failed", res.Failed),
	)
	return nil
}
