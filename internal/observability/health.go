package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus int

const (
	HealthStatusUp HealthStatus = iota
	HealthStatusDown
	HealthStatusDegraded
	HealthStatusUnknown
)

var statusNames = map[HealthStatus]string{
	HealthStatusUp:       "UP",
	HealthStatusDown:     "DOWN",
	HealthStatusDegraded: "DEGRADED",
	HealthStatusUnknown:  "UNKNOWN",
}

// String returns the status name
func (s HealthStatus) String() string {
	return statusNames[s]
}

// MarshalJSON encodes the status by name
func (s HealthStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// HealthCheck represents a health check
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) HealthResult
}

// HealthResult represents the result of a health check
type HealthResult struct {
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// HealthReport represents the overall health report
type HealthReport struct {
	Status     HealthStatus            `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Components map[string]HealthResult `json:"components"`
}

// CheckFunc adapts a function to HealthCheck
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) HealthResult
}

// Name returns the check name
func (c CheckFunc) Name() string { return c.CheckName }

// Check runs the function
func (c CheckFunc) Check(ctx context.Context) HealthResult { return c.Fn(ctx) }

// HealthManager manages health checks
type HealthManager struct {
	mu      sync.RWMutex
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthManager creates a new health manager
func NewHealthManager(timeout time.Duration) *HealthManager {
	return &HealthManager{
		checks:  make(map[string]HealthCheck),
		timeout: timeout,
	}
}

// RegisterCheck registers a health check
func (hm *HealthManager) RegisterCheck(check HealthCheck) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checks[check.Name()] = check
}

// CheckHealth runs every check and folds the results into one status
func (hm *HealthManager) CheckHealth(ctx context.Context) HealthReport {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checks))
	for name := range hm.checks {
		names = append(names, name)
	}
	checks := hm.checks
	hm.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	components := make(map[string]HealthResult, len(names))
	overall := HealthStatusUp

	for _, name := range names {
		hm.mu.RLock()
		check := checks[name]
		hm.mu.RUnlock()

		result := check.Check(ctx)
		result.Timestamp = time.Now()
		components[name] = result

		switch result.Status {
		case HealthStatusDown:
			overall = HealthStatusDown
		case HealthStatusDegraded, HealthStatusUnknown:
			if overall == HealthStatusUp {
				overall = result.Status
			}
		}
	}

	return HealthReport{
		Status:     overall,
		Timestamp:  time.Now(),
		Components: components,
	}
}

// HealthHandler returns an HTTP handler for health checks
func (hm *HealthManager) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := hm.CheckHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")

		switch report.Status {
		case HealthStatusUp, HealthStatusDegraded:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(report)
	}
}

// LivenessHandler answers as long as the process serves HTTP
func (hm *HealthManager) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "UP",
			"timestamp": time.Now(),
		})
	}
}
