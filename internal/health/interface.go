package health

// Status is the categorical health state derived from the numeric score.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
)

func (s Status) String() string {
	return string(s)
}

// Factor records one penalty that was applied to the score, in evaluation
// order.
type Factor struct {
	Name    string  `json:"name"`
	Penalty float64 `json:"penalty"`
	Reason  string  `json:"reason"`
}

// HealthScore is the composite result. Derived per request from a
// NormalizedMetrics snapshot; never persisted.
type HealthScore struct {
	Score               int      `json:"score"`
	Status              Status   `json:"status"`
	ContributingFactors []Factor `json:"contributing_factors"`
}
