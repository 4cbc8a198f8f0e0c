package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Adda-Baaj/vpic-harvester/internal/domain"
)

const vehicleBucket = "decoded_vehicles"

// record is the JSON value stored per key.
type record struct {
	ExpiresAt int64                 `json:"expires_at"`
	Vehicle   domain.DecodedVehicle `json:"vehicle"`
}

func (r record) live(now time.Time) bool {
	return r.ExpiresAt > now.Unix()
}

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	entryTTL        time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(vehicleBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		entryTTL:        opts.EntryTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Seen reports whether a live entry exists for key.
func (b *boltStore) Seen(key string) (bool, error) {
	_, ok, err := b.Lookup(key)
	return ok, err
}

// Lookup returns the archived vehicle for key. Expired entries are reported as
// missing and removed at the next cleanup.
func (b *boltStore) Lookup(key string) (domain.DecodedVehicle, bool, error) {
	if b == nil || b.db == nil {
		return domain.DecodedVehicle{}, false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return domain.DecodedVehicle{}, false, err
	}

	var (
		rec   record
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(vehicleBucket))
		if bucket == nil {
			return fmt.Errorf("vehicle bucket missing")
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			// unreadable entries are treated as absent and rewritten on Save
			return nil
		}
		found = rec.live(now)
		return nil
	})
	if err != nil || !found {
		return domain.DecodedVehicle{}, false, err
	}
	return rec.Vehicle, true, nil
}

// Save archives v under key with the configured TTL.
func (b *boltStore) Save(key string, v domain.DecodedVehicle) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	raw, err := json.Marshal(record{ExpiresAt: now.Add(b.entryTTL).Unix(), Vehicle: v})
	if err != nil {
		return fmt.Errorf("encode vehicle %s: %w", key, err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(vehicleBucket))
		if bucket == nil {
			return fmt.Errorf("vehicle bucket missing")
		}
		return bucket.Put([]byte(key), raw)
	})
}

// maybeCleanupExpired removes expired or unreadable entries at most once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(vehicleBucket))
		if bucket == nil {
			return fmt.Errorf("vehicle bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil || !rec.live(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// count returns the number of stored entries, live or not.
func (b *boltStore) count() (int, error) {
	n := 0
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(vehicleBucket))
		if bucket == nil {
			return fmt.Errorf("vehicle bucket missing")
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}
