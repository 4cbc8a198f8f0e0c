// Package storage keeps a local archive of decoded vehicles so repeated harvester
// passes skip VINs that were already decoded and published.
package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/vpic-harvester/internal/domain"
)

// Store archives decoded vehicles by key (see Key).
type Store interface {
	Close() error
	Seen(key string) (bool, error)
	Save(key string, v domain.DecodedVehicle) error
	Lookup(key string) (domain.DecodedVehicle, bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	EntryTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultEntryTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// Key builds the archive key for a VIN and optional model year. The same VIN
// decoded for a different year is a different entry.
func Key(vin string, year int) string {
	k := strings.ToUpper(strings.TrimSpace(vin))
	if year != 0 {
		k += "|" + strconv.Itoa(year)
	}
	return k
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = defaultEntryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                             { return nil }
func (noopStore) Seen(string) (bool, error)                { return false, nil }
func (noopStore) Save(string, domain.DecodedVehicle) error { return nil }
func (noopStore) Lookup(string) (domain.DecodedVehicle, bool, error) {
	return domain.DecodedVehicle{}, false, nil
}
