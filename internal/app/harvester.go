package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Adda-Baaj/vpic-harvester/internal/config"
	"github.com/Adda-Baaj/vpic-harvester/internal/decoder"
	"github.com/Adda-Baaj/vpic-harvester/internal/logger"
	"github.com/Adda-Baaj/vpic-harvester/internal/storage"
	"github.com/Adda-Baaj/vpic-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/vpic-harvester/pkg/publishers"
	"github.com/Adda-Baaj/vpic-harvester/pkg/sources"
	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
)

// Harvester represents the VIN harvester runtime. It runs decode passes over the
// configured sources, delivering results through the publishers and recording
// delivered VINs in the store.
type Harvester struct {
	cfg            *config.Config
	sourceReg      *sources.Registry
	fanout         *publishers.Fanout
	decodeService  *decoder.Service
	decodeInterval time.Duration
	log            logger.Logger
	store          storage.Store
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sourceReg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	sourceList := sourceReg.All()
	sourceIDs := make([]string, 0, len(sourceList))
	for _, s := range sourceList {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	transport := httpclient.NewRestyClient(cfg.HTTPTimeout)
	headers := map[string]string{}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	// batch results are always parsed as JSON, whatever the CLI default is
	client, err := vpic.NewClient(vpic.Config{
		BaseURL: cfg.VPICBaseURL,
		Format:  vpic.FormatJSON,
		Headers: headers,
	}, transport)
	if err != nil {
		store.Close()
		fanout.Close()
		return nil, fmt.Errorf("init vpic client: %w", err)
	}

	var pub decoder.EventPublisher
	if fanout.Size() > 0 {
		pub = fanout
	}
	processor := decoder.NewSourceProcessor(
		sources.DefaultLoaderRegistry(transport),
		client,
		pub,
		log,
		store,
		cfg.BatchSize,
	)

	return &Harvester{
		cfg:            cfg,
		sourceReg:      sourceReg,
		fanout:         fanout,
		decodeService:  decoder.NewService(processor, log),
		decodeInterval: cfg.DecodeInterval,
		log:            log,
		store:          store,
	}, nil
}

// buildFanout loads the publishers file. An empty path or an empty enabled set
// leaves the store as the only sink.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.WarnObj("no publishers file configured; decoded vehicles are archived only", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("all publishers disabled; decoded vehicles are archived only", "publishers_file", cfg.PublishersFile)
		return publishers.NewFanout(nil), nil
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run performs one decode pass and, when an interval is configured, keeps
// decoding on a ticker until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.decodeService == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()
	srcs := h.sourceReg.All()

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"sources_count":    len(srcs),
		"publishers_count": h.fanout.Size(),
		"decode_interval":  h.decodeInterval.String(),
		"batch_size":       h.cfg.BatchSize,
	})

	if h.decodeInterval <= 0 {
		return h.runOnce(ctx, srcs)
	}

	if err := h.runOnce(ctx, srcs); err != nil {
		h.log.ErrorObj("initial decode failed", "error", err)
	}

	ticker := time.NewTicker(h.decodeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx, srcs); err != nil {
				h.log.ErrorObj("scheduled decode failed", "error", err)
			}
		}
	}
}

// runOnce performs a single decode pass across all sources.
func (h *Harvester) runOnce(ctx context.Context, srcs []sources.Source) error {
	start := time.Now()
	h.log.InfoObj("decode started", "decode_meta", map[string]any{
		"sources_count": len(srcs),
		"started_at":    start.UTC(),
	})
	if err := h.decodeService.Run(ctx, srcs); err != nil {
		return err
	}
	h.log.InfoObj("decode completed", "decode_meta", map[string]any{
		"sources_count": len(srcs),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the store and publisher clients, logging any errors encountered.
func (h *Harvester) close() {
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if err := h.fanout.Close(); err != nil {
		h.log.ErrorObj("publisher close failed", "error", err)
	}
}
