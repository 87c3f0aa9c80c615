package health

import "codeberg.org/mutker/deviceapi/internal/errors"

// Config holds the scoring thresholds and caps. They are deliberately
// tunable; only the monotonicity and clamping behavior is fixed.
type Config struct {
	CPUWarn        float64
	CPUCap         float64
	MemoryWarn     float64
	MemoryCap      float64
	DiskWarn       float64
	DiskCap        float64
	UnknownPenalty float64
	UptimeBonusMax float64
}

func DefaultConfig() Config {
	return Config{
		CPUWarn:        80,
		CPUCap:         30,
		MemoryWarn:     80,
		MemoryCap:      30,
		DiskWarn:       85,
		DiskCap:        25,
		UnknownPenalty: 15,
		UptimeBonusMax: 5,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	for _, warn := range []float64{c.CPUWarn, c.MemoryWarn, c.DiskWarn} {
		if warn < 0 || warn >= 100 {
			return errFactory.WithData(errors.ErrInvalidConfig, "warning thresholds must be in [0,100)")
		}
	}

	for _, penaltyCap := range []float64{c.CPUCap, c.MemoryCap, c.DiskCap} {
		if penaltyCap < 0 {
			return errFactory.WithData(errors.ErrInvalidConfig, "penalty caps must not be negative")
		}
	}

	if c.UnknownPenalty < 0 || c.UptimeBonusMax < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "penalties and bonuses must not be negative")
	}

	return nil
}
