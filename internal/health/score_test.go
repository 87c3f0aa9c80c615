package health_test

import (
	"testing"

	"codeberg.org/mutker/deviceapi/internal/collector"
	"codeberg.org/mutker/deviceapi/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *health.Engine {
	t.Helper()

	engine, err := health.NewEngine(health.DefaultConfig())
	require.NoError(t, err)

	return engine
}

func metricsWith(cpu, memory, disk float64, uptime int64) collector.NormalizedMetrics {
	return collector.NormalizedMetrics{
		CPUPercent:    cpu,
		MemoryPercent: memory,
		DiskPercent:   disk,
		UptimeSeconds: uptime,
	}
}

func TestScorePerfectMetrics(t *testing.T) {
	engine := newEngine(t)

	score := engine.Score(metricsWith(0, 0, 0, 3600))

	assert.Equal(t, 100, score.Score)
	assert.Equal(t, health.StatusHealthy, score.Status)
	assert.Empty(t, score.ContributingFactors)
}

func TestScoreSaturatedMetricsAreCritical(t *testing.T) {
	engine := newEngine(t)
	cfg := health.DefaultConfig()

	score := engine.Score(metricsWith(100, 100, 100, collector.UnknownUptime))

	// All caps applied: 100 - 30 - 30 - 25
	want := 100 - cfg.CPUCap - cfg.MemoryCap - cfg.DiskCap
	assert.EqualValues(t, want, score.Score)
	assert.Equal(t, health.StatusCritical, score.Status)
	require.Len(t, score.ContributingFactors, 3)
	assert.Equal(t, "cpu", score.ContributingFactors[0].Name)
	assert.Equal(t, "memory", score.ContributingFactors[1].Name)
	assert.Equal(t, "disk", score.ContributingFactors[2].Name)
}

func TestScoreMonotonicInEachFactor(t *testing.T) {
	engine := newEngine(t)

	prev := 101
	for cpu := 0.0; cpu <= 100; cpu += 5 {
		s := engine.Score(metricsWith(cpu, 50, 50, 3600))
		assert.LessOrEqual(t, s.Score, prev, "score must be non-increasing in cpu (cpu=%v)", cpu)
		prev = s.Score
	}

	prev = 101
	for memory := 0.0; memory <= 100; memory += 5 {
		s := engine.Score(metricsWith(50, memory, 50, 3600))
		assert.LessOrEqual(t, s.Score, prev, "score must be non-increasing in memory (memory=%v)", memory)
		prev = s.Score
	}

	prev = 101
	for disk := 0.0; disk <= 100; disk += 5 {
		s := engine.Score(metricsWith(50, 50, disk, 3600))
		assert.LessOrEqual(t, s.Score, prev, "score must be non-increasing in disk (disk=%v)", disk)
		prev = s.Score
	}
}

func TestScoreUnknownFactorIsPenalized(t *testing.T) {
	engine := newEngine(t)

	healthy := engine.Score(metricsWith(0, 0, 0, 3600))
	unknownCPU := engine.Score(metricsWith(collector.UnknownPercent, 0, 0, 3600))

	assert.Less(t, unknownCPU.Score, healthy.Score, "unknown is never treated as healthy")
	require.Len(t, unknownCPU.ContributingFactors, 1)
	assert.Equal(t, "cpu", unknownCPU.ContributingFactors[0].Name)
	assert.Contains(t, unknownCPU.ContributingFactors[0].Reason, "unknown")
}

func TestScoreMostlyUnknownForcesUnknownStatus(t *testing.T) {
	engine := newEngine(t)

	// Three of four core fields unknown
	score := engine.Score(collector.NormalizedMetrics{
		CPUPercent:    collector.UnknownPercent,
		MemoryPercent: collector.UnknownPercent,
		DiskPercent:   10,
		UptimeSeconds: collector.UnknownUptime,
	})
	assert.Equal(t, health.StatusUnknown, score.Status)

	// Exactly half unknown keeps the numeric status
	score = engine.Score(collector.NormalizedMetrics{
		CPUPercent:    collector.UnknownPercent,
		MemoryPercent: collector.UnknownPercent,
		DiskPercent:   10,
		UptimeSeconds: 3600,
	})
	assert.NotEqual(t, health.StatusUnknown, score.Status)
}

func TestScoreStatusBands(t *testing.T) {
	engine := newEngine(t)

	assert.Equal(t, health.StatusHealthy, engine.Score(metricsWith(50, 50, 50, 3600)).Status)

	// One saturated factor: 100 - 30 = 70 -> degraded
	degraded := engine.Score(metricsWith(100, 0, 0, collector.UnknownUptime))
	assert.Equal(t, health.StatusDegraded, degraded.Status)

	critical := engine.Score(metricsWith(100, 100, 0, collector.UnknownUptime))
	assert.Equal(t, health.StatusCritical, critical.Status)
}

func TestScoreStatusMatchesReportedScoreAtBandBoundary(t *testing.T) {
	engine := newEngine(t)

	// cpu=87 with default thresholds carries a penalty of (7/20)*30 = 10.5,
	// so the raw score is 89.5 and the reported score rounds to 90. The
	// status must follow the reported number, not the raw float.
	onBoundary := engine.Score(metricsWith(87, 0, 0, collector.UnknownUptime))
	assert.Equal(t, 90, onBoundary.Score)
	assert.Equal(t, health.StatusHealthy, onBoundary.Status)

	// cpu=87.4 rounds down to 89 and stays degraded
	belowBoundary := engine.Score(metricsWith(87.4, 0, 0, collector.UnknownUptime))
	assert.Equal(t, 89, belowBoundary.Score)
	assert.Equal(t, health.StatusDegraded, belowBoundary.Status)
}

func TestScoreUptimeBonusNeverExceedsHundred(t *testing.T) {
	engine := newEngine(t)

	// Thirty days of uptime with perfect metrics
	score := engine.Score(metricsWith(0, 0, 0, 30*86400))
	assert.Equal(t, 100, score.Score)
}

func TestScoreUptimeBonusOffsetsSmallPenalty(t *testing.T) {
	engine := newEngine(t)

	fresh := engine.Score(metricsWith(85, 0, 0, 60))
	longRunning := engine.Score(metricsWith(85, 0, 0, 30*86400))

	assert.Greater(t, longRunning.Score, fresh.Score)
}

func TestScorePenaltyScalesWithThresholdDistance(t *testing.T) {
	engine := newEngine(t)

	mild := engine.Score(metricsWith(85, 0, 0, collector.UnknownUptime))
	severe := engine.Score(metricsWith(95, 0, 0, collector.UnknownUptime))

	assert.Greater(t, mild.Score, severe.Score)
	require.Len(t, mild.ContributingFactors, 1)
	assert.Contains(t, mild.ContributingFactors[0].Reason, "exceeds")
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := health.DefaultConfig()
	cfg.CPUWarn = 120

	_, err := health.NewEngine(cfg)
	require.Error(t, err)
}
