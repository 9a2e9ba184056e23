package observability

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusUp   HealthStatus = "up"
	HealthStatusDown HealthStatus = "down"
)

// Health describes the health of an individual component.
type Health struct {
	Name    string         `json:"name"`
	Status  HealthStatus   `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// AggregateHealth describes several components at once. Status is down if
// any component is down.
type AggregateHealth struct {
	Status     HealthStatus `json:"status"`
	Components []Health     `json:"components,omitempty"`
}

// CheckAll runs every checker and aggregates the results.
func CheckAll(ctx context.Context, checkers ...HealthChecker) AggregateHealth {
	agg := AggregateHealth{Status: HealthStatusUp}
	for _, c := range checkers {
		h := c.CheckHealth(ctx)
		if h.Status == HealthStatusDown {
			agg.Status = HealthStatusDown
		}
		agg.Components = append(agg.Components, h)
	}
	return agg
}
