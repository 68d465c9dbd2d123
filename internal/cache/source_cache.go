package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/sentinai/sentin"
)

// SourceCache fronts a set of named external data sources with per-source
// timed caches. A successful fetch is cached for the source's TTL; failures
// are never cached, so the next call retries the source.
type SourceCache struct {
	sources map[string]*sourceEntry
	mutex   sync.RWMutex
}

type sourceEntry struct {
	fetcher sentin.Fetcher
	cache   *TimedCache[string, sentin.SensorReading]
}

// NewSourceCache creates an empty source cache. Sources are added with
// Register before the first Fetch.
func NewSourceCache() *SourceCache {
	return &SourceCache{
		sources: make(map[string]*sourceEntry),
	}
}

// Register binds a fetcher to a source name with its own TTL. Registering an
// existing name replaces the fetcher and discards any cached reading.
func (s *SourceCache) Register(source string, ttl time.Duration, fetcher sentin.Fetcher) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sources[source] = &sourceEntry{
		fetcher: fetcher,
		cache:   NewTimedCache[string, sentin.SensorReading](ttl),
	}
}

// Fetch returns the reading for a source, serving from cache while the entry
// is live. The boolean reports whether the reading came from cache.
func (s *SourceCache) Fetch(ctx context.Context, source string) (sentin.SensorReading, bool, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, false, err
	}

	s.mutex.RLock()
	entry, found := s.sources[source]
	s.mutex.RUnlock()
	if !found {
		return nil, false, sentin.NewConfigurationError(fmt.Sprintf("unknown data source: %s", source), nil)
	}

	if reading, ok := entry.cache.Get(source); ok {
		log.Printf("Source cache hit (source: %s)", source)
		return reading, true, nil
	}

	log.Printf("Source cache miss, fetching (source: %s)", source)
	reading, err := entry.fetcher.Fetch(ctx)
	if err != nil {
		// Leave the cache untouched so the next call retries.
		return nil, false, sentin.NewSourceFetchError(source, err)
	}

	entry.cache.Set(source, reading)
	return reading, false, nil
}

// Invalidate discards the cached reading for a source, if any.
func (s *SourceCache) Invalidate(source string) {
	s.mutex.RLock()
	entry, found := s.sources[source]
	s.mutex.RUnlock()
	if found {
		entry.cache.Delete(source)
	}
}

// InvalidateAll discards every cached reading.
func (s *SourceCache) InvalidateAll() {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for source, entry := range s.sources {
		entry.cache.Delete(source)
	}
}

// SetClock replaces the time source of every registered source's cache.
// Useful in tests.
func (s *SourceCache) SetClock(now func() time.Time) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, entry := range s.sources {
		entry.cache.SetClock(now)
	}
}
