package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/deviceapi/internal/errors"
	"codeberg.org/mutker/deviceapi/internal/logger"
	"codeberg.org/mutker/deviceapi/internal/provider"
	"codeberg.org/mutker/deviceapi/internal/registry"
	"golang.org/x/sync/singleflight"
)

// Facade collects heterogeneous platform metrics concurrently, merges them
// into one NormalizedMetrics record, and caches the result. Collection is
// purely request-triggered; the cache and single-flight group ensure a burst
// of requests maps to at most one provider fan-out per TTL window.
type Facade struct {
	reg      *registry.Registry
	cfg      Config
	log      logger.Logger
	recorder Recorder
	now      func() time.Time

	group singleflight.Group
	cache atomic.Pointer[CacheEntry]
}

type Option func(*Facade)

// WithRecorder attaches a snapshot recorder that receives every refreshed
// record.
func WithRecorder(rec Recorder) Option {
	return func(f *Facade) {
		f.recorder = rec
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) {
		f.now = now
	}
}

func New(reg *registry.Registry, cfg Config, opts ...Option) (*Facade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Facade{
		reg: reg,
		cfg: cfg,
		log: logger.Default(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// Collect returns the current NormalizedMetrics, refreshing the cache when
// it has expired. Concurrent callers past the TTL share a single in-flight
// refresh instead of each starting their own fan-out.
func (f *Facade) Collect(ctx context.Context) (NormalizedMetrics, error) {
	if m, ok := f.cached(); ok {
		cacheHits.Inc()
		return m, nil
	}

	result, err, _ := f.group.Do("collect", func() (any, error) {
		// A refresh that completed while this caller queued counts as
		// fresh; do not fan out again.
		if m, ok := f.cached(); ok {
			return m, nil
		}

		metrics, err := f.refresh()
		if err != nil {
			return NormalizedMetrics{}, err
		}

		f.cache.Store(&CacheEntry{Metrics: metrics, CapturedAt: metrics.Timestamp})

		if f.recorder != nil {
			if recordErr := f.recorder.Record(ctx, metrics); recordErr != nil {
				f.log.Warn().Err(recordErr).Msg("Failed to record metrics snapshot")
			}
		}

		return metrics, nil
	})
	if err != nil {
		return NormalizedMetrics{}, err
	}

	return result.(NormalizedMetrics), nil
}

// InvalidateCache drops the cached entry so the next Collect refreshes.
func (f *Facade) InvalidateCache() {
	f.cache.Store(nil)
}

func (f *Facade) cached() (NormalizedMetrics, bool) {
	entry := f.cache.Load()
	if entry == nil || f.cfg.CacheTTL <= 0 {
		return NormalizedMetrics{}, false
	}

	if f.now().Sub(entry.CapturedAt) >= f.cfg.CacheTTL {
		return NormalizedMetrics{}, false
	}

	return entry.Metrics, true
}

type sourceResult struct {
	sample provider.RawSample
	err    error
}

// refresh resolves the health provider and fans out over its collection
// methods. Each source is bounded by its own timeout and may fail
// independently; a failed source degrades to the unknown sentinel instead of
// aborting the cycle.
func (f *Facade) refresh() (NormalizedMetrics, error) {
	started := f.now()
	collectionCycles.Inc()

	hp, err := registry.Resolve[provider.HealthProvider](f.reg, registry.ContractHealth)
	if err != nil {
		return NormalizedMetrics{}, errors.New().Wrap(ErrCollectFailed, err)
	}

	sources := []struct {
		name    string
		collect func(context.Context) (provider.RawSample, error)
	}{
		{"cpu", hp.CollectCPU},
		{"memory", hp.CollectMemory},
		{"disk", hp.CollectDisk},
		{"uptime", hp.CollectUptime},
		{"extras", hp.CollectExtras},
	}

	results := make([]sourceResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, name string, collect func(context.Context) (provider.RawSample, error)) {
			defer wg.Done()
			results[i] = f.collectSource(name, collect)
		}(i, src.name, src.collect)
	}
	wg.Wait()

	metrics := merge(results[0], results[1], results[2], results[3], results[4])
	metrics.Timestamp = f.now()
	metrics.Platform = f.reg.Platform()

	collectionDuration.Observe(f.now().Sub(started).Seconds())

	return metrics, nil
}

// collectSource runs one provider call bounded by the per-provider timeout.
// The call itself runs detached so a provider that ignores its context still
// cannot block the merge.
func (f *Facade) collectSource(name string, collect func(context.Context) (provider.RawSample, error)) sourceResult {
	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.ProviderTimeout)
	defer cancel()

	done := make(chan sourceResult, 1)
	go func() {
		sample, err := collect(ctx)
		done <- sourceResult{sample: sample, err: err}
	}()

	select {
	case result := <-done:
		if result.err != nil {
			sourceFailures.WithLabelValues(name).Inc()
			f.log.Debug().Err(result.err).Str("source", name).Msg("Provider source failed")
		}
		return result
	case <-ctx.Done():
		sourceFailures.WithLabelValues(name).Inc()
		f.log.Debug().Str("source", name).Msg("Provider source timed out")
		return sourceResult{err: errors.New().Wrap(ErrSourceTimeout, ctx.Err())}
	}
}

// merge folds raw samples into one normalized record. Percentages are
// clamped to [0,100]; anything a source failed to report becomes the unknown
// sentinel, never a fabricated number.
func merge(cpu, memory, disk, uptime, extras sourceResult) NormalizedMetrics {
	m := NormalizedMetrics{
		CPUPercent:    UnknownPercent,
		MemoryPercent: UnknownPercent,
		DiskPercent:   UnknownPercent,
		UptimeSeconds: UnknownUptime,
		Extras:        map[string]any{},
	}

	if cpu.err == nil {
		if v, ok := cpu.sample.Numbers[provider.KeyCPUPercent]; ok {
			m.CPUPercent = clampPercent(v)
		}
	}

	if memory.err == nil {
		m.MemoryPercent = percentFrom(memory.sample,
			provider.KeyMemoryPercent, provider.KeyMemoryUsed, provider.KeyMemoryTotal)
		copyBytes(m.Extras, memory.sample, provider.KeyMemoryUsed, provider.KeyMemoryTotal)
	}

	if disk.err == nil {
		m.DiskPercent = percentFrom(disk.sample,
			provider.KeyDiskPercent, provider.KeyDiskUsed, provider.KeyDiskTotal)
		copyBytes(m.Extras, disk.sample, provider.KeyDiskUsed, provider.KeyDiskTotal)
	}

	if uptime.err == nil {
		if v, ok := uptime.sample.Numbers[provider.KeyUptimeSeconds]; ok && v >= 0 {
			m.UptimeSeconds = int64(v)
		}
	}

	if extras.err == nil {
		for key, value := range extras.sample.Numbers {
			m.Extras[key] = value
		}
		for key, value := range extras.sample.Strings {
			m.Extras[key] = value
		}
	}

	return m
}

// percentFrom prefers a direct percentage and falls back to deriving one
// from used/total byte counts.
func percentFrom(sample provider.RawSample, percentKey, usedKey, totalKey string) float64 {
	if v, ok := sample.Numbers[percentKey]; ok {
		return clampPercent(v)
	}

	used, usedOK := sample.Numbers[usedKey]
	total, totalOK := sample.Numbers[totalKey]
	if usedOK && totalOK && total > 0 {
		return clampPercent(used / total * 100)
	}

	return UnknownPercent
}

func copyBytes(extras map[string]any, sample provider.RawSample, keys ...string) {
	for _, key := range keys {
		if v, ok := sample.Numbers[key]; ok {
			extras[key] = v
		}
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return v
}
