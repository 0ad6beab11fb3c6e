// Package store provides a thin bbolt wrapper for hws's local data store.
//
// The store is an explicit data accumulator, not a transparent HTTP cache.
// Readings are written by fetch and import commands and read by the chart,
// analyze and view commands. Nothing expires on its own.
//
// Buckets:
//
//	reservoirs  reservoir metadata keyed by ID
//	levels      accumulated readings keyed by reservoir:<ID>
//	views       saved chart windows keyed by view:<name>
//	_meta       internal: schema version, created_at
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/hws/internal/model"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Number of decoded level series kept in memory.
const levelCacheSize = 32

// ErrNotFound is returned when a named entry does not exist.
var ErrNotFound = errors.New("not found")

// Bucket name constants.
var (
	bucketReservoirs = []byte("reservoirs")
	bucketLevels     = []byte("levels")
	bucketViews      = []byte("views")
	bucketInternal   = []byte("_meta")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"reservoirs", "levels", "views"}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
	// levels caches decoded level series by reservoir ID.
	levels *simplelru.LRU
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	lru, err := simplelru.NewLRU(levelCacheSize, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating level cache: %w", err)
	}

	s := &Store{db: db, levels: lru}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketReservoirs, bucketLevels, bucketViews, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Reservoirs ───────────────────────────────────────────────────────────────

// PutReservoir stores reservoir metadata, stamping UpdatedAt.
func (s *Store) PutReservoir(r model.Reservoir) error {
	if r.ID == "" {
		return fmt.Errorf("reservoir ID is required")
	}
	r.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding reservoir: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReservoirs).Put([]byte(r.ID), data)
	})
}

// GetReservoir retrieves a reservoir by ID.
// Returns (r, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) GetReservoir(id string) (model.Reservoir, bool, error) {
	var r model.Reservoir
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketReservoirs).Get([]byte(id))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &r)
	})
	if err != nil {
		return r, false, err
	}
	return r, r.ID != "", nil
}

// ListReservoirs returns all stored reservoirs, sorted by ID.
func (s *Store) ListReservoirs() ([]model.Reservoir, error) {
	var out []model.Reservoir
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReservoirs).ForEach(func(k, v []byte) error {
			var r model.Reservoir
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
	})
	return out, err
}

// ─── Levels ───────────────────────────────────────────────────────────────────

// LevelsKey builds the canonical key for a reservoir's readings.
func LevelsKey(reservoirID string) string {
	return "reservoir:" + reservoirID
}

// storedReading is the JSON-safe on-disk representation of a reading.
// Fill is a *float64 so that missing values (NaN) are stored as JSON null
// rather than NaN, which encoding/json cannot handle.
type storedReading struct {
	Date    string   `json:"date"`
	Fill    *float64 `json:"fill"` // null = missing
	FillRaw string   `json:"fill_raw"`
}

// storedLevels is the on-disk envelope for a reservoir's readings.
type storedLevels struct {
	ReservoirID string          `json:"reservoir_id"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Readings    []storedReading `json:"readings"`
}

func readingToStored(r model.Reading) storedReading {
	row := storedReading{
		Date:    r.Date.Format("2006-01-02"),
		FillRaw: r.FillRaw,
	}
	if !r.IsMissing() {
		v := r.Fill
		row.Fill = &v
	}
	return row
}

func storedToReading(r storedReading) model.Reading {
	t, _ := time.Parse("2006-01-02", r.Date)
	out := model.Reading{Date: t, FillRaw: r.FillRaw, Fill: math.NaN()}
	if r.Fill != nil {
		out.Fill = *r.Fill
	}
	return out
}

// PutLevels merges readings into the reservoir's stored series. A reading
// for a date already present replaces the stored one. The result is kept
// sorted by date. Returns the number of readings stored afterwards.
func (s *Store) PutLevels(data model.LevelSeries) (int, error) {
	if data.ReservoirID == "" {
		return 0, fmt.Errorf("reservoir ID is required")
	}
	key := []byte(LevelsKey(data.ReservoirID))
	var total int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLevels)
		byDate := make(map[string]storedReading)
		if v := b.Get(key); v != nil {
			var env storedLevels
			if err := json.Unmarshal(v, &env); err != nil {
				return fmt.Errorf("decoding levels %s: %w", data.ReservoirID, err)
			}
			for _, r := range env.Readings {
				byDate[r.Date] = r
			}
		}
		for _, r := range data.Readings {
			row := readingToStored(r)
			byDate[row.Date] = row
		}

		env := storedLevels{
			ReservoirID: data.ReservoirID,
			UpdatedAt:   time.Now().UTC(),
			Readings:    make([]storedReading, 0, len(byDate)),
		}
		for _, r := range byDate {
			env.Readings = append(env.Readings, r)
		}
		sort.Slice(env.Readings, func(i, j int) bool {
			return env.Readings[i].Date < env.Readings[j].Date
		})
		total = len(env.Readings)

		enc, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("encoding levels: %w", err)
		}
		return b.Put(key, enc)
	})
	if err == nil {
		s.levels.Remove(data.ReservoirID)
	}
	return total, err
}

// GetLevels retrieves a reservoir's readings.
// Returns (data, true, nil) if found, (zero, false, nil) if not found.
// Decoded series are served from an in-memory LRU on repeat reads.
func (s *Store) GetLevels(reservoirID string) (model.LevelSeries, bool, error) {
	if v, ok := s.levels.Get(reservoirID); ok {
		if cached, ok := v.(model.LevelSeries); ok {
			return copyLevels(cached), true, nil
		}
	}

	var env storedLevels
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketLevels).Get([]byte(LevelsKey(reservoirID)))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &env)
	})
	if err != nil {
		return model.LevelSeries{}, false, err
	}
	if env.ReservoirID == "" {
		return model.LevelSeries{}, false, nil
	}
	readings := make([]model.Reading, len(env.Readings))
	for i, r := range env.Readings {
		readings[i] = storedToReading(r)
	}
	data := model.LevelSeries{ReservoirID: env.ReservoirID, Readings: readings}
	s.levels.Add(reservoirID, data)
	return copyLevels(data), true, nil
}

// CachedLevels reports how many decoded series are held in memory.
func (s *Store) CachedLevels() int {
	return s.levels.Len()
}

func copyLevels(d model.LevelSeries) model.LevelSeries {
	d.Readings = append([]model.Reading(nil), d.Readings...)
	return d
}

// ListLevelIDs returns the IDs of all reservoirs with stored readings.
func (s *Store) ListLevelIDs() ([]string, error) {
	prefix := []byte("reservoir:")
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketLevels).Cursor()
		for k, _ := c.Seek(prefix); k != nil; k, _ = c.Next() {
			if len(k) < len(prefix) || string(k[:len(prefix)]) != string(prefix) {
				break
			}
			ids = append(ids, string(k[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

// ─── Views ────────────────────────────────────────────────────────────────────

// PutView saves a chart view, stamping SavedAt. The key is view:<name>.
func (s *Store) PutView(v model.View) error {
	if v.Name == "" {
		return fmt.Errorf("view name is required")
	}
	v.SavedAt = time.Now().UTC()
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding view: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketViews).Put([]byte("view:"+v.Name), b)
	})
}

// GetView retrieves a view by name.
func (s *Store) GetView(name string) (model.View, bool, error) {
	var v model.View
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketViews).Get([]byte("view:" + name))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &v)
	})
	if err != nil {
		return v, false, err
	}
	return v, v.Name != "", nil
}

// ListViews returns all views sorted by name.
func (s *Store) ListViews() ([]model.View, error) {
	var views []model.View
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketViews).ForEach(func(k, raw []byte) error {
			var v model.View
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			views = append(views, v)
			return nil
		})
	})
	return views, err
}

// DeleteView removes a view by name. Returns ErrNotFound if it does not
// exist.
func (s *Store) DeleteView(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketViews)
		key := []byte("view:" + name)
		if b.Get(key) == nil {
			return fmt.Errorf("view %q: %w", name, ErrNotFound)
		}
		return b.Delete(key)
	})
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets, in
// AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	bname := []byte(name)
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
	if err == nil && name == string(bucketLevels) {
		s.levels.Purge()
	}
	return err
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// compactTxSize is the write transaction size used while compacting.
const compactTxSize = 1 << 20

// Compact copies all live data into a new file and swaps it in for the
// database, returning the file sizes before and after. The store stays open.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()
	if fi, err := os.Stat(path); err == nil {
		before = fi.Size()
	}

	tmp := path + ".compact"
	os.Remove(tmp)
	dst, err := bolt.Open(tmp, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("opening %s: %w", tmp, err)
	}
	if err := bolt.Compact(dst, s.db, compactTxSize); err != nil {
		dst.Close()
		os.Remove(tmp)
		return before, 0, fmt.Errorf("copying data: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return before, 0, fmt.Errorf("closing %s: %w", tmp, err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmp)
		return before, 0, fmt.Errorf("closing db: %w", err)
	}
	renameErr := os.Rename(tmp, path)
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("reopening db %s: %w", path, err)
	}
	s.db = db
	s.levels.Purge()
	if renameErr != nil {
		os.Remove(tmp)
		return before, before, fmt.Errorf("replacing db: %w", renameErr)
	}

	if fi, err := os.Stat(path); err == nil {
		after = fi.Size()
	}
	return before, after, nil
}
