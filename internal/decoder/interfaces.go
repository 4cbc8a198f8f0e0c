package decoder

import (
	"context"

	"github.com/Adda-Baaj/vpic-harvester/internal/domain"
	"github.com/Adda-Baaj/vpic-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/vpic-harvester/pkg/publishers"
	"github.com/Adda-Baaj/vpic-harvester/pkg/sources"
	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
)

// BatchDecoder posts VIN batches to vPIC. *vpic.Client satisfies it.
type BatchDecoder interface {
	DecodeVINBatch(ctx context.Context, pairs []vpic.VINYear) (httpclient.Response, error)
}

// EventPublisher publishes decoded vehicles downstream and reports how many
// sinks accepted the event.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper tracks VINs that were already decoded and delivered.
type Deduper interface {
	Seen(key string) (bool, error)
	Save(key string, v domain.DecodedVehicle) error
}

// Processor handles a single source.
type Processor interface {
	Process(ctx context.Context, src sources.Source) (Result, error)
}
