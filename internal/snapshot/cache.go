package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Cache holds the last N snapshots in fetch order. It is safe for concurrent
// use: the refresh loop writes while HTTP handlers read.
type Cache struct {
	mu      sync.RWMutex
	writeMu sync.Mutex // orders file writes
	size    int
	items   []Snapshot // oldest first
	path    string
	logger  *zap.SugaredLogger
}

// NewCache creates a cache holding at most size snapshots. When path is set,
// every Put also writes the cache to that file.
func NewCache(size int, path string, logger *zap.SugaredLogger) *Cache {
	if size < 1 {
		size = 1
	}
	return &Cache{
		size:   size,
		items:  make([]Snapshot, 0, size),
		path:   path,
		logger: logger.Named("snapshot"),
	}
}

// Put stores a snapshot, evicting the oldest when full. The snapshot is
// cached even if writing the file copy fails.
func (c *Cache) Put(s Snapshot) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.items = append(c.items, s)
	if len(c.items) > c.size {
		c.items = append(c.items[:0:0], c.items[len(c.items)-c.size:]...)
	}
	var records []record
	if c.path != "" {
		records = toRecords(c.items)
	}
	c.mu.Unlock()

	if c.path == "" {
		return nil
	}
	if err := c.persist(records); err != nil {
		return fmt.Errorf("persisting snapshot cache: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot
func (c *Cache) Latest() (Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.items) == 0 {
		return Snapshot{}, ErrEmpty
	}
	return c.items[len(c.items)-1], nil
}

// Get finds a cached snapshot by ID
func (c *Cache) Get(id uuid.UUID) (Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.items {
		if s.ID == id {
			return s, nil
		}
	}
	return Snapshot{}, ErrNotFound
}

// List returns all cached snapshots, newest first
func (c *Cache) List() []Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Snapshot, len(c.items))
	for i, s := range c.items {
		out[len(c.items)-1-i] = s
	}
	return out
}

// Len reports how many snapshots are cached
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Load restores the cache from its file. A missing file is not an error; a
// file that cannot be decoded is logged and ignored.
func (c *Cache) Load() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading snapshot cache: %w", err)
	}

	var records []record
	if err := msgpack.Unmarshal(data, &records); err != nil {
		c.logger.Warnw("ignoring unreadable snapshot cache", "path", c.path, "error", err)
		return nil
	}

	items := make([]Snapshot, 0, len(records))
	for _, r := range records {
		s, err := r.snapshot()
		if err != nil {
			c.logger.Warnw("skipping cached snapshot", "id", r.ID, "error", err)
			continue
		}
		items = append(items, s)
	}
	if len(items) > c.size {
		items = items[len(items)-c.size:]
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	c.logger.Infow("restored snapshot cache", "path", c.path, "snapshots", len(items))
	return nil
}

// persist writes the records next to the target and renames them into place
func (c *Cache) persist(records []record) error {
	data, err := msgpack.Marshal(records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// record is the on-disk form of a Snapshot
type record struct {
	ID        string              `msgpack:"id"`
	FetchedAt time.Time           `msgpack:"fetched_at"`
	Source    string              `msgpack:"source"`
	Series    map[string][][]byte `msgpack:"series"`
}

func toRecords(items []Snapshot) []record {
	records := make([]record, len(items))
	for i, s := range items {
		series := make(map[string][][]byte, len(s.Series))
		for name, samples := range s.Series {
			encoded := make([][]byte, len(samples))
			for j, sample := range samples {
				encoded[j] = sample
			}
			series[name] = encoded
		}
		records[i] = record{
			ID:        s.ID.String(),
			FetchedAt: s.FetchedAt,
			Source:    s.Source,
			Series:    series,
		}
	}
	return records
}

func (r record) snapshot() (Snapshot, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Snapshot{}, err
	}

	series := make(airquality.RawSeries, len(r.Series))
	for name, samples := range r.Series {
		raw := make([]json.RawMessage, len(samples))
		for i, sample := range samples {
			raw[i] = json.RawMessage(sample)
		}
		series[name] = raw
	}

	return Snapshot{
		ID:        id,
		FetchedAt: r.FetchedAt,
		Source:    r.Source,
		Series:    series,
	}, nil
}
