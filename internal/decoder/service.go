// Package decoder runs VIN sources through the vPIC batch decoder and hands the
// decoded vehicles to the publishers.
package decoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/vpic-harvester/internal/logger"
	"github.com/Adda-Baaj/vpic-harvester/pkg/sources"
)

// Service coordinates decoding across multiple sources.
type Service struct {
	processor Processor
	log       logger.Logger
}

// NewService wires a decoder service around a per-source processor.
func NewService(proc Processor, log logger.Logger) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Service{processor: proc, log: log}
}

// Run executes a decode pass for all configured sources.
func (s *Service) Run(ctx context.Context, srcs []sources.Source) error {
	if s == nil || s.processor == nil {
		return fmt.Errorf("decoder service is not initialized")
	}

	if len(srcs) == 0 {
		return fmt.Errorf("no sources configured for decoding")
	}

	errs := s.runAll(ctx, srcs)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (s *Service) runAll(ctx context.Context, srcs []sources.Source) []error {
	errs := make([]error, 0, len(srcs))

	for _, src := range srcs {
		if ctx.Err() != nil {
			break
		}

		res, err := s.processor.Process(ctx, src)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("source decode failed", "source_error", map[string]any{
				"source_id": src.ID,
				"error":     err.Error(),
			})
		}

		s.log.InfoObj("source decode completed", "source_result", map[string]any{
			"source_id": res.SourceID,
			"loaded":    res.Loaded,
			"skipped":   res.Skipped,
			"decoded":   res.Decoded,
			"published": res.Published,
			"unclean":   res.Unclean,
		})
	}

	return errs
}
