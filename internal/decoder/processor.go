package decoder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/vpic-harvester/internal/domain"
	"github.com/Adda-Baaj/vpic-harvester/internal/logger"
	"github.com/Adda-Baaj/vpic-harvester/internal/storage"
	"github.com/Adda-Baaj/vpic-harvester/pkg/publishers"
	"github.com/Adda-Baaj/vpic-harvester/pkg/sources"
	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
)

// Result summarises one source pass.
type Result struct {
	SourceID  string
	Loaded    int
	Skipped   int
	Decoded   int
	Published int
	Unclean   int
}

// SourceProcessor loads a source, decodes unseen VINs in batches and delivers
// the results.
type SourceProcessor struct {
	loaders   sources.LoaderRegistry
	decoder   BatchDecoder
	publisher EventPublisher
	log       logger.Logger
	store     Deduper
	batchSize int
	now       func() time.Time
}

// NewSourceProcessor wires a processor. A nil publisher archives decoded
// vehicles in the store only; a nil store disables dedupe.
func NewSourceProcessor(loaders sources.LoaderRegistry, dec BatchDecoder, pub EventPublisher, log logger.Logger, store Deduper, batchSize int) *SourceProcessor {
	if log == nil {
		log = logger.NopLogger{}
	}
	if batchSize <= 0 || batchSize > vpic.MaxBatchSize {
		batchSize = vpic.MaxBatchSize
	}
	return &SourceProcessor{
		loaders:   loaders,
		decoder:   dec,
		publisher: pub,
		log:       log,
		store:     store,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Process runs one pass over src. Batch and delivery failures are collected and
// returned together; cancellation stops between batches.
func (p *SourceProcessor) Process(ctx context.Context, src sources.Source) (Result, error) {
	res := Result{SourceID: src.ID}

	loader, err := p.loaders.LoaderFor(src)
	if err != nil {
		return res, fmt.Errorf("resolve loader for source %s: %w", src.ID, err)
	}

	pairs, err := loader.Load(ctx, src)
	if err != nil {
		return res, fmt.Errorf("load source %s: %w", src.ID, err)
	}
	res.Loaded = len(pairs)

	fresh := p.filterUnseen(src, pairs)
	res.Skipped = len(pairs) - len(fresh)

	var errs []error
	batches := chunk(fresh, p.batchSize)
	for i, batch := range batches {
		if ctx.Err() != nil {
			break
		}

		if err := p.processBatch(ctx, src, batch, &res); err != nil {
			errs = append(errs, err)
		}

		if i < len(batches)-1 && !sleep(ctx, src.RequestDelay()) {
			break
		}
	}

	return res, errors.Join(errs...)
}

func (p *SourceProcessor) processBatch(ctx context.Context, src sources.Source, batch []vpic.VINYear, res *Result) error {
	resp, err := p.decoder.DecodeVINBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("decode batch for source %s: %w", src.ID, err)
	}
	if err := vpic.CheckStatus(resp); err != nil {
		return fmt.Errorf("decode batch for source %s: %w", src.ID, err)
	}
	rows, err := vpic.DecodeBatchResults(resp.Body())
	if err != nil {
		return fmt.Errorf("decode batch for source %s: %w", src.ID, err)
	}

	at := p.now()
	var errs []error
	for i, row := range rows {
		vehicle := domain.NewDecodedVehicle(src.ID, row, at)
		res.Decoded++
		if !vehicle.Clean() {
			res.Unclean++
			p.log.DebugObj("vin decoded with warnings", "vin_decode_warning", map[string]any{
				"source_id":  src.ID,
				"vin":        vehicle.VIN,
				"error_code": vehicle.ErrorCode,
				"error_text": vehicle.ErrorText,
			})
		}

		if err := p.deliver(ctx, src, vehicle); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Published++

		if p.store == nil {
			continue
		}
		key := keyFor(batch, len(rows), i, vehicle)
		if err := p.store.Save(key, vehicle); err != nil {
			errs = append(errs, fmt.Errorf("save vin %s: %w", vehicle.VIN, err))
		}
	}

	p.log.InfoObj("vin batch decoded", "batch_result", map[string]any{
		"source_id": src.ID,
		"requested": len(batch),
		"returned":  len(rows),
	})
	return errors.Join(errs...)
}

// deliver succeeds when at least one publisher accepted the event. Partial
// failures are logged.
func (p *SourceProcessor) deliver(ctx context.Context, src sources.Source, vehicle domain.DecodedVehicle) error {
	if p.publisher == nil {
		return nil
	}

	accepted, err := p.publisher.Publish(ctx, publishers.NewEvent(src.ID, vehicle))
	if accepted == 0 {
		if err == nil {
			err = errors.New("no publisher accepted the event")
		}
		return fmt.Errorf("publish vin %s: %w", vehicle.VIN, err)
	}
	if err != nil {
		p.log.WarnObj("vin published with partial failures", "publish_warning", map[string]any{
			"source_id": src.ID,
			"vin":       vehicle.VIN,
			"accepted":  accepted,
			"error":     err.Error(),
		})
	}
	return nil
}

// filterUnseen drops pairs already in the store. Lookup failures keep the pair.
func (p *SourceProcessor) filterUnseen(src sources.Source, pairs []vpic.VINYear) []vpic.VINYear {
	if p.store == nil {
		return pairs
	}

	out := make([]vpic.VINYear, 0, len(pairs))
	for _, pair := range pairs {
		seen, err := p.store.Seen(storage.Key(pair.VIN, pair.Year))
		if err != nil {
			p.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"source_id": src.ID,
				"vin":       pair.VIN,
				"error":     err.Error(),
			})
		}
		if seen {
			continue
		}
		out = append(out, pair)
	}
	return out
}

// keyFor maps a result row back to the requested pair. vPIC answers in request
// order, so rows line up with the batch when the counts match.
func keyFor(batch []vpic.VINYear, rows, i int, vehicle domain.DecodedVehicle) string {
	if rows == len(batch) {
		return storage.Key(batch[i].VIN, batch[i].Year)
	}
	for _, pair := range batch {
		if strings.EqualFold(pair.VIN, vehicle.VIN) {
			return storage.Key(pair.VIN, pair.Year)
		}
	}
	year, _ := strconv.Atoi(vehicle.ModelYear)
	return storage.Key(vehicle.VIN, year)
}

func chunk(pairs []vpic.VINYear, size int) [][]vpic.VINYear {
	var out [][]vpic.VINYear
	for start := 0; start < len(pairs); start += size {
		end := min(start+size, len(pairs))
		out = append(out, pairs[start:end])
	}
	return out
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
