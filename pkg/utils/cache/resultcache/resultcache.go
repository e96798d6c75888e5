// Package resultcache provides the durable cache for fully computed
// comparison/aggregate results. One serialized blob per key on disk plus a
// JSON metadata index which is the sole source of truth for eviction
// decisions. Entries expire lazily after a TTL; when the byte budget is
// exceeded a synchronous LRU pass evicts the least-recently-accessed
// entries. Corrupt entries are self-healed by deletion and never surface as
// errors to the caller.
package resultcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/apperrors"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/metrics"
)

const (
	indexFilename = "cache_metadata.json"
	blobSuffix    = ".blob"

	defaultMaxBytes = 10 << 30 // 10 GiB
	defaultTTL      = 365 * 24 * time.Hour
)

// Key identifies one computed result.
type Key struct {
	Year        int
	Event       string
	SessionType string
	DataKind    string // e.g. "comparison_VER_HAM_0_0_1000"
}

// id is the normalized form used for the index and the blob filename.
func (k Key) id() string {
	kind := strings.ReplaceAll(strings.ReplaceAll(k.DataKind, " ", "_"), "/", "_")
	return fmt.Sprintf("%d_%s_%s_%s",
		k.Year, model.NormalizeEventID(k.Event), k.SessionType, kind)
}

type entryMeta struct {
	Year         int    `json:"year"`
	Event        string `json:"event"`
	SessionType  string `json:"sessionType"`
	DataKind     string `json:"dataKind"`
	SizeBytes    int64  `json:"fileSizeBytes"`
	CreatedAt    string `json:"createdAt"`    // RFC3339
	LastAccessed string `json:"lastAccessed"` // RFC3339
}

type indexData struct {
	Entries        map[string]entryMeta `json:"entries"`
	TotalSizeBytes int64                `json:"totalSizeBytes"`
	LastCleanup    string               `json:"lastCleanup"`
}

type (
	Option func(*Cache)
	Cache  struct {
		mutex    sync.Mutex
		dir      string
		maxBytes int64
		ttl      time.Duration
		codec    Codec
		idx      indexData
		now      func() time.Time
		l        *log.Logger
	}
)

func WithMaxBytes(maxBytes int64) Option {
	return func(c *Cache) {
		if maxBytes > 0 {
			c.maxBytes = maxBytes
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithCodec(codec Codec) Option {
	return func(c *Cache) {
		c.codec = codec
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(c *Cache) {
		c.l = arg
	}
}

// WithClock injects the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func New(dir string, opts ...Option) (*Cache, error) {
	ret := &Cache{
		dir:      dir,
		maxBytes: defaultMaxBytes,
		ttl:      defaultTTL,
		codec:    CBORCodec{},
		now:      time.Now,
		l:        log.Default().Named("cache.result"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if err := ret.loadIndex(); err != nil {
		return nil, err
	}
	ret.reconcile()
	return ret, nil
}

func (c *Cache) loadIndex() error {
	c.idx = indexData{Entries: map[string]entryMeta{}}
	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			c.idx.LastCleanup = c.now().Format(time.RFC3339)
			return c.writeIndex()
		}
		return fmt.Errorf("read cache index: %w", err)
	}
	if err := oj.Unmarshal(data, &c.idx); err != nil {
		// unreadable index: start over, blobs get removed by reconcile
		c.l.Warn("cache index unreadable, resetting", log.ErrorField(err))
		c.idx = indexData{
			Entries:     map[string]entryMeta{},
			LastCleanup: c.now().Format(time.RFC3339),
		}
	}
	if c.idx.Entries == nil {
		c.idx.Entries = map[string]entryMeta{}
	}
	return nil
}

// reconcile removes blobs without index entries and index entries without
// blobs. Either case is corruption per the storage contract.
func (c *Cache) reconcile() {
	files, err := filepath.Glob(filepath.Join(c.dir, "*"+blobSuffix))
	if err != nil {
		return
	}
	onDisk := map[string]bool{}
	for _, f := range files {
		id := strings.TrimSuffix(filepath.Base(f), blobSuffix)
		onDisk[id] = true
		if _, ok := c.idx.Entries[id]; !ok {
			c.l.Warn("removing orphan blob", log.String("id", id))
			_ = os.Remove(f)
		}
	}
	changed := false
	for id := range c.idx.Entries {
		if !onDisk[id] {
			c.l.Warn("removing index entry without blob", log.String("id", id))
			delete(c.idx.Entries, id)
			changed = true
		}
	}
	if changed || c.recomputeTotal() {
		_ = c.writeIndex()
	}
	metrics.ResultCacheBytes.Set(float64(c.idx.TotalSizeBytes))
}

func (c *Cache) indexPath() string {
	return filepath.Join(c.dir, indexFilename)
}

func (c *Cache) blobPath(id string) string {
	return filepath.Join(c.dir, id+blobSuffix)
}

func (c *Cache) writeIndex() error {
	data, err := oj.Marshal(&c.idx, 2)
	if err != nil {
		return fmt.Errorf("encode cache index: %w", err)
	}
	if err := os.WriteFile(c.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("write cache index: %w", err)
	}
	return nil
}

func (c *Cache) recomputeTotal() bool {
	var total int64
	for _, e := range c.idx.Entries {
		total += e.SizeBytes
	}
	changed := total != c.idx.TotalSizeBytes
	c.idx.TotalSizeBytes = total
	return changed
}

func parseRFC3339(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{} // treat unparsable timestamps as ancient
	}
	return t
}

// Exists reports whether a non-expired entry is present. Expired or corrupt
// entries are purged as a side effect.
func (c *Cache) Exists(key Key) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.existsLocked(key.id())
}

func (c *Cache) existsLocked(id string) bool {
	entry, ok := c.idx.Entries[id]
	if !ok {
		return false
	}
	if c.now().Sub(parseRFC3339(entry.CreatedAt)) > c.ttl {
		c.l.Info("cache entry expired", log.String("id", id))
		c.deleteLocked(id)
		metrics.ResultCacheEvictions.Inc()
		return false
	}
	if _, err := os.Stat(c.blobPath(id)); err != nil {
		c.healCorruption(id, err)
		return false
	}
	return true
}

// Get loads the entry into dest and reports whether it was found. A decode
// failure deletes the entry and counts as a miss. Successful access updates
// the LRU bookkeeping.
func (c *Cache) Get(key Key, dest any) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	id := key.id()
	if !c.existsLocked(id) {
		metrics.ResultCacheMisses.Inc()
		return false
	}
	data, err := os.ReadFile(c.blobPath(id))
	if err != nil {
		c.healCorruption(id, err)
		metrics.ResultCacheMisses.Inc()
		return false
	}
	if err := c.codec.Unmarshal(data, dest); err != nil {
		c.healCorruption(id, err)
		metrics.ResultCacheMisses.Inc()
		return false
	}

	entry := c.idx.Entries[id]
	entry.LastAccessed = c.now().Format(time.RFC3339)
	c.idx.Entries[id] = entry
	if err := c.writeIndex(); err != nil {
		c.l.Error("could not persist cache index", log.ErrorField(err))
	}
	metrics.ResultCacheHits.Inc()
	return true
}

// healCorruption deletes a corrupt entry. Corruption is internal only; the
// caller just sees a miss.
func (c *Cache) healCorruption(id string, cause error) {
	corr := &apperrors.CacheCorruptionError{Key: id, Err: cause}
	c.l.Warn("self-healing corrupt cache entry", log.ErrorField(corr))
	c.deleteLocked(id)
}

// Put serializes the value, stores the blob, updates the index and runs a
// synchronous LRU eviction pass when the byte budget is exceeded.
func (c *Cache) Put(key Key, value any) error {
	data, err := c.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("serialize cache entry: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	id := key.id()
	if err := os.WriteFile(c.blobPath(id), data, 0o644); err != nil {
		return fmt.Errorf("write cache blob: %w", err)
	}
	nowStr := c.now().Format(time.RFC3339)
	c.idx.Entries[id] = entryMeta{
		Year:         key.Year,
		Event:        key.Event,
		SessionType:  key.SessionType,
		DataKind:     key.DataKind,
		SizeBytes:    int64(len(data)),
		CreatedAt:    nowStr,
		LastAccessed: nowStr,
	}
	c.recomputeTotal()
	if c.idx.TotalSizeBytes > c.maxBytes {
		c.evictLRU()
	}
	metrics.ResultCacheBytes.Set(float64(c.idx.TotalSizeBytes))
	if err := c.writeIndex(); err != nil {
		return err
	}
	c.l.Debug("cached result",
		log.String("id", id), log.Int("sizeBytes", len(data)))
	return nil
}

// evictLRU removes entries ascending by last-accessed-at until the total is
// within budget. Caller holds the lock.
func (c *Cache) evictLRU() {
	type candidate struct {
		id           string
		lastAccessed time.Time
		sizeBytes    int64
	}
	candidates := make([]candidate, 0, len(c.idx.Entries))
	for id, e := range c.idx.Entries {
		candidates = append(candidates, candidate{
			id:           id,
			lastAccessed: parseRFC3339(e.LastAccessed),
			sizeBytes:    e.SizeBytes,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastAccessed.Before(candidates[j].lastAccessed)
	})
	for _, cand := range candidates {
		if c.idx.TotalSizeBytes <= c.maxBytes {
			break
		}
		_ = os.Remove(c.blobPath(cand.id))
		delete(c.idx.Entries, cand.id)
		c.recomputeTotal()
		metrics.ResultCacheEvictions.Inc()
		c.l.Info("evicted cache entry",
			log.String("id", cand.id), log.Int64("sizeBytes", cand.sizeBytes))
	}
	c.idx.LastCleanup = c.now().Format(time.RFC3339)
}

func (c *Cache) Delete(key Key) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.deleteLocked(key.id())
	return c.writeIndex()
}

func (c *Cache) deleteLocked(id string) {
	if err := os.Remove(c.blobPath(id)); err != nil && !os.IsNotExist(err) {
		c.l.Error("could not remove cache blob",
			log.String("id", id), log.ErrorField(err))
	}
	delete(c.idx.Entries, id)
	c.recomputeTotal()
	metrics.ResultCacheBytes.Set(float64(c.idx.TotalSizeBytes))
}

// Clear removes all entries and returns the number of removed blobs.
func (c *Cache) Clear() (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	count := 0
	for id := range c.idx.Entries {
		if err := os.Remove(c.blobPath(id)); err == nil {
			count++
		}
	}
	c.idx.Entries = map[string]entryMeta{}
	c.idx.TotalSizeBytes = 0
	metrics.ResultCacheBytes.Set(0)
	return count, c.writeIndex()
}

type Stats struct {
	Dir            string  `json:"dir"`
	TotalEntries   int     `json:"totalEntries"`
	TotalSizeBytes int64   `json:"totalSizeBytes"`
	MaxSizeBytes   int64   `json:"maxSizeBytes"`
	UsagePercent   float64 `json:"usagePercent"`
	LastCleanup    string  `json:"lastCleanup"`
}

func (c *Cache) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	usage := 0.0
	if c.maxBytes > 0 {
		usage = float64(c.idx.TotalSizeBytes) / float64(c.maxBytes) * 100
	}
	return Stats{
		Dir:            c.dir,
		TotalEntries:   len(c.idx.Entries),
		TotalSizeBytes: c.idx.TotalSizeBytes,
		MaxSizeBytes:   c.maxBytes,
		UsagePercent:   usage,
		LastCleanup:    c.idx.LastCleanup,
	}
}

type SessionInfo struct {
	Year         int    `json:"year"`
	Event        string `json:"event"`
	SessionType  string `json:"sessionType"`
	DataKind     string `json:"dataKind"`
	SizeBytes    int64  `json:"sizeBytes"`
	CreatedAt    string `json:"createdAt"`
	LastAccessed string `json:"lastAccessed"`
}

// Sessions lists all cached entries, most recently accessed first.
func (c *Cache) Sessions() []SessionInfo {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ret := make([]SessionInfo, 0, len(c.idx.Entries))
	for _, e := range c.idx.Entries {
		ret = append(ret, SessionInfo{
			Year:         e.Year,
			Event:        e.Event,
			SessionType:  e.SessionType,
			DataKind:     e.DataKind,
			SizeBytes:    e.SizeBytes,
			CreatedAt:    e.CreatedAt,
			LastAccessed: e.LastAccessed,
		})
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].LastAccessed > ret[j].LastAccessed
	})
	return ret
}
