package health

import (
	"fmt"
	"math"

	"codeberg.org/mutker/deviceapi/internal/collector"
)

// Engine derives a composite health score from normalized metrics. Scoring
// is a pure function of its input; the engine holds only configuration.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg}, nil
}

// Score starts at 100 and subtracts threshold-scaled penalties for cpu,
// memory and disk, in that fixed order. An unknown factor takes a fixed
// moderate penalty; unknown is never treated as healthy. Uptime earns a
// small capped bonus that can never push the score above 100.
func (e *Engine) Score(m collector.NormalizedMetrics) HealthScore {
	score := 100.0
	var factors []Factor

	evaluate := func(name string, value float64, unknown bool, warn, penaltyCap float64) {
		penalty, reason := e.factorPenalty(name, value, unknown, warn, penaltyCap)
		if penalty > 0 {
			score -= penalty
			factors = append(factors, Factor{Name: name, Penalty: penalty, Reason: reason})
		}
	}

	evaluate("cpu", m.CPUPercent, m.CPUUnknown(), e.cfg.CPUWarn, e.cfg.CPUCap)
	evaluate("memory", m.MemoryPercent, m.MemoryUnknown(), e.cfg.MemoryWarn, e.cfg.MemoryCap)
	evaluate("disk", m.DiskPercent, m.DiskUnknown(), e.cfg.DiskWarn, e.cfg.DiskCap)

	if !m.UptimeUnknown() {
		days := float64(m.UptimeSeconds) / 86400
		score += math.Min(days, e.cfg.UptimeBonusMax)
	}

	score = math.Max(0, math.Min(100, score))
	rounded := int(math.Round(score))

	return HealthScore{
		Score:               rounded,
		Status:              e.status(rounded, m),
		ContributingFactors: factors,
	}
}

func (e *Engine) factorPenalty(name string, value float64, unknown bool, warn, penaltyCap float64) (float64, string) {
	if unknown {
		return e.cfg.UnknownPenalty, fmt.Sprintf("%s usage is unknown", name)
	}

	if value <= warn {
		return 0, ""
	}

	span := 100 - warn
	penalty := math.Min(penaltyCap, (value-warn)/span*penaltyCap)

	return penalty, fmt.Sprintf("%s usage %.1f%% exceeds %.0f%% threshold", name, value, warn)
}

// status maps the reported score to a category. It takes the same rounded
// integer that is emitted, so score and status can never disagree at a band
// boundary. More than half of the core fields being unknown forces the
// unknown status regardless of the number.
func (e *Engine) status(score int, m collector.NormalizedMetrics) Status {
	if m.UnknownCoreFields() > 2 {
		return StatusUnknown
	}

	switch {
	case score >= 90:
		return StatusHealthy
	case score >= 70:
		return StatusDegraded
	default:
		return StatusCritical
	}
}
