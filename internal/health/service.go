package health

import (
	"context"

	"codeberg.org/mutker/deviceapi/internal/collector"
)

// Summary pairs a health score with the metrics snapshot it was derived
// from.
type Summary struct {
	HealthScore
	Metrics collector.NormalizedMetrics `json:"metrics"`
}

// Service is the summary facade handed to the HTTP layer. It collects
// through the metrics facade and scores the result.
type Service struct {
	facade *collector.Facade
	engine *Engine
}

func NewService(facade *collector.Facade, engine *Engine) *Service {
	return &Service{
		facade: facade,
		engine: engine,
	}
}

// Collect returns the current normalized metrics.
func (s *Service) Collect(ctx context.Context) (collector.NormalizedMetrics, error) {
	return s.facade.Collect(ctx)
}

// CollectSummary collects metrics and derives the composite health score.
func (s *Service) CollectSummary(ctx context.Context) (Summary, error) {
	metrics, err := s.facade.Collect(ctx)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		HealthScore: s.engine.Score(metrics),
		Metrics:     metrics,
	}, nil
}
