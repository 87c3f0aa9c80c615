package collector

import (
	"context"
	"time"

	"codeberg.org/mutker/deviceapi/internal/platform"
)

// Unknown sentinels. A provider that failed or timed out reports these,
// never a stale or fabricated number.
const (
	UnknownPercent float64 = -1
	UnknownUptime  int64   = -1
)

// NormalizedMetrics is the platform-agnostic health record the facade merges
// heterogeneous raw provider samples into. Percentage fields are either in
// [0,100] or the unknown sentinel.
type NormalizedMetrics struct {
	CPUPercent    float64           `json:"cpu_percent"`
	MemoryPercent float64           `json:"memory_percent"`
	DiskPercent   float64           `json:"disk_percent"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Timestamp     time.Time         `json:"timestamp"`
	Platform      platform.Platform `json:"platform"`
	Extras        map[string]any    `json:"extras,omitempty"`
}

func (m NormalizedMetrics) CPUUnknown() bool    { return m.CPUPercent < 0 }
func (m NormalizedMetrics) MemoryUnknown() bool { return m.MemoryPercent < 0 }
func (m NormalizedMetrics) DiskUnknown() bool   { return m.DiskPercent < 0 }
func (m NormalizedMetrics) UptimeUnknown() bool { return m.UptimeSeconds < 0 }

// UnknownCoreFields counts how many of the four core metric fields carry the
// unknown sentinel.
func (m NormalizedMetrics) UnknownCoreFields() int {
	count := 0
	for _, unknown := range []bool{m.CPUUnknown(), m.MemoryUnknown(), m.DiskUnknown(), m.UptimeUnknown()} {
		if unknown {
			count++
		}
	}

	return count
}

// CacheEntry pairs a merged record with the instant it was captured. Entries
// are replaced wholesale on refresh, never mutated in place.
type CacheEntry struct {
	Metrics    NormalizedMetrics
	CapturedAt time.Time
}

// Recorder receives every freshly merged record. The history repository
// implements it; recording failures never affect collection.
type Recorder interface {
	Record(ctx context.Context, metrics NormalizedMetrics) error
}
