package cache

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"testviewer/internal/storage"
)

// KeyPrefix namespaces archive entries in the shared store
const KeyPrefix = "artifact_"

// ErrQuotaExceeded is returned when an archive cannot be cached within the ceiling
var ErrQuotaExceeded = errors.New("cache quota exceeded")

// ArchiveCache is a size-bounded persistent cache of downloaded archives keyed by artifact id.
// An entry's size is the length of its key plus its base64 value.
type ArchiveCache struct {
	mu      sync.Mutex
	store   storage.Store
	ceiling int
	logger  zerolog.Logger
}

// Usage describes the cache contents
type Usage struct {
	Entries int
	Bytes   int
	Ceiling int
}

// New creates an ArchiveCache over store whose entries never total more than ceiling bytes
func New(store storage.Store, ceiling int, logger zerolog.Logger) *ArchiveCache {
	return &ArchiveCache{store: store, ceiling: ceiling, logger: logger}
}

// Key returns the store key for an artifact
func Key(artifactID int64) string {
	return KeyPrefix + strconv.FormatInt(artifactID, 10)
}

// Get returns the cached archive. Unreadable or corrupt entries count as absent and are dropped.
func (c *ArchiveCache) Get(artifactID int64) ([]byte, bool) {
	key := Key(artifactID)
	value, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to read cached artifact")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	blob, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Dropping corrupt cached artifact")
		_ = c.store.Remove(key)
		return nil, false
	}
	return blob, true
}

// Put stores blob, evicting the largest cached archives first until it fits.
// An archive that alone exceeds the ceiling is rejected without evicting anything.
func (c *ArchiveCache) Put(artifactID int64, blob []byte) error {
	key := Key(artifactID)
	value := base64.StdEncoding.EncodeToString(blob)
	size := len(key) + len(value)
	if size > c.ceiling {
		return fmt.Errorf("%w: artifact %d needs %d bytes, ceiling is %d", ErrQuotaExceeded, artifactID, size, c.ceiling)
	}

	// Eviction and insertion form one critical section so concurrent puts cannot both fit.
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.entries()
	if err != nil {
		return err
	}
	total := 0
	others := entries[:0]
	for _, e := range entries {
		if e.key == key {
			continue
		}
		total += e.size
		others = append(others, e)
	}

	sort.SliceStable(others, func(i, j int) bool {
		if others[i].size != others[j].size {
			return others[i].size > others[j].size
		}
		return others[i].key < others[j].key
	})
	for len(others) > 0 && total+size > c.ceiling {
		victim := others[0]
		others = others[1:]
		if err := c.store.Remove(victim.key); err != nil {
			return fmt.Errorf("evict %s: %w", victim.key, err)
		}
		total -= victim.size
		c.logger.Debug().Str("key", victim.key).Int("bytes", victim.size).Msg("Evicted cached artifact")
	}

	if err := c.store.Set(key, value); err != nil {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return nil
}

// Usage reports the number and total size of cached archives
func (c *ArchiveCache) Usage() (Usage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.entries()
	if err != nil {
		return Usage{}, err
	}
	u := Usage{Entries: len(entries), Ceiling: c.ceiling}
	for _, e := range entries {
		u.Bytes += e.size
	}
	return u, nil
}

// Remove drops one cached archive
func (c *ArchiveCache) Remove(artifactID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Remove(Key(artifactID))
}

// Clear removes every cached archive and nothing else
func (c *ArchiveCache) Clear() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.store.Keys(KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list cache keys: %w", err)
	}
	for i, k := range keys {
		if err := c.store.Remove(k); err != nil {
			return i, fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return len(keys), nil
}

type entry struct {
	key  string
	size int
}

func (c *ArchiveCache) entries() ([]entry, error) {
	keys, err := c.store.Keys(KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list cache keys: %w", err)
	}
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		if !strings.HasPrefix(k, KeyPrefix) {
			continue
		}
		v, ok, err := c.store.Get(k)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", k, err)
		}
		if ok {
			entries = append(entries, entry{key: k, size: len(k) + len(v)})
		}
	}
	return entries, nil
}
