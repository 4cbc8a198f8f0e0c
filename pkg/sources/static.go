package sources

import (
	"context"
	"fmt"

	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
)

// StaticLoader serves the "VIN" or "VIN,YEAR" entries listed under config "vins".
type StaticLoader struct{}

func NewStaticLoader() *StaticLoader { return &StaticLoader{} }

func (*StaticLoader) Type() string { return TypeStatic }

func (*StaticLoader) Load(ctx context.Context, src Source) ([]vpic.VINYear, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := ConfigStrings(src, ConfigVINsKey)
	if err != nil {
		return nil, err
	}

	pairs := make([]vpic.VINYear, 0, len(entries))
	for i, raw := range entries {
		pair, err := vpic.ParseVINYear(raw)
		if err != nil {
			return nil, fmt.Errorf("source %s vins[%d]: %w", src.ID, i, err)
		}
		pairs = append(pairs, pair)
	}
	return dedupePairs(pairs), nil
}
