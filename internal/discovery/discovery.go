// FilePath: internal/discovery/discovery.go

// Package discovery enumerates the sensor source tables that currently
// exist. Discovery never fails: when the store procedure and the probe loop
// both come up empty, the default source set is returned so downstream
// checks always have something to look at.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/repository"
)

const (
	cacheKey = "greenhub:sensor_tables"
	// maxProbe bounds the probe loop; the convention is contiguous indices
	// from 1, so a run this long means something else is wrong.
	maxProbe = 64

	defaultCacheTTL     = 5 * time.Minute
	defaultProbeTimeout = 10 * time.Second
)

// DefaultSources is the fallback set used when every strategy fails.
func DefaultSources() []string {
	return []string{"sensor_1", "sensor_2", "sensor_3"}
}

// Discoverer resolves the current sensor source list, caching results in
// Redis when a client is available.
type Discoverer struct {
	readings     repository.ReadingRepository
	cache        *redis.Client
	cacheTTL     time.Duration
	probeTimeout time.Duration
}

// New creates a Discoverer. cache may be nil.
func New(readings repository.ReadingRepository, cache *redis.Client, cacheTTL, probeTimeout time.Duration) *Discoverer {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &Discoverer{
		readings:     readings,
		cache:        cache,
		cacheTTL:     cacheTTL,
		probeTimeout: probeTimeout,
	}
}

// Discover returns the current sensor sources, in ascending index order.
// Strategy order: cache, store procedure, probe loop, default set. The
// result is never empty.
func (d *Discoverer) Discover(ctx context.Context) []string {
	if cached := d.fromCache(ctx); len(cached) > 0 {
		return cached
	}

	tables, err := d.readings.ListSensorTables(ctx)
	if err != nil {
		nuts.L.Warnf("[Discovery] Table enumeration procedure failed, probing: %v", err)
		tables = d.probe(ctx)
	} else if len(tables) == 0 {
		nuts.L.Warnf("[Discovery] Table enumeration returned no sensor tables, probing")
		tables = d.probe(ctx)
	}

	if len(tables) == 0 {
		nuts.L.Warnf("[Discovery] No sensor tables found, using default set")
		return DefaultSources()
	}

	d.store(ctx, tables)
	return tables
}

// Invalidate drops the cached source list, forcing rediscovery on the next
// tick. Called when an admin adds or removes sensor tables.
func (d *Discoverer) Invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Del(ctx, cacheKey).Err(); err != nil {
		nuts.L.Warnf("[Discovery] Failed to invalidate cache: %v", err)
	}
}

// probe walks sensor_1, sensor_2, ... until a table is missing. A missing
// table ends the walk cleanly; a transient error also ends it, but is
// logged as such since it may truncate the result early.
func (d *Discoverer) probe(ctx context.Context) []string {
	var tables []string
	for i := 1; i <= maxProbe; i++ {
		table := fmt.Sprintf("sensor_%d", i)

		probeCtx, cancel := context.WithTimeout(ctx, d.probeTimeout)
		exists, err := d.readings.ProbeSource(probeCtx, table)
		cancel()

		if err != nil {
			nuts.L.Warnf("[Discovery] Probe of %s failed, stopping early: %v", table, err)
			break
		}
		if !exists {
			break
		}
		tables = append(tables, table)
	}
	return tables
}

func (d *Discoverer) fromCache(ctx context.Context) []string {
	if d.cache == nil {
		return nil
	}
	raw, err := d.cache.Get(ctx, cacheKey).Result()
	if err != nil {
		if err != redis.Nil {
			nuts.L.Warnf("[Discovery] Cache read failed: %v", err)
		}
		return nil
	}
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func (d *Discoverer) store(ctx context.Context, tables []string) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Set(ctx, cacheKey, strings.Join(tables, ","), d.cacheTTL).Err(); err != nil {
		nuts.L.Warnf("[Discovery] Cache write failed: %v", err)
	}
}
