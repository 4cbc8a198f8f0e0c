// harvester decodes the VINs of every configured source through vPIC and
// publishes the decoded vehicles.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/vpic-harvester/internal/app"
	"github.com/Adda-Baaj/vpic-harvester/internal/config"
	"github.com/Adda-Baaj/vpic-harvester/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("harvester starting", "config", map[string]any{
		"vpic_base_url":   cfg.VPICBaseURL,
		"sources_file":    cfg.SourcesFile,
		"publishers_file": cfg.PublishersFile,
		"batch_size":      cfg.BatchSize,
		"decode_interval": cfg.DecodeInterval.String(),
		"storage_type":    cfg.StorageType,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	harvester, err := app.NewHarvester(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize harvester", "error", err)
		return err
	}

	if err := harvester.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("harvester run: %w", err)
	}

	return nil
}
