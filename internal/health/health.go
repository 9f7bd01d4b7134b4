// Package health runs named subsystem checks for the health endpoint.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the outcome of a single subsystem check.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes one subsystem. It must respect ctx.
type Checker func(ctx context.Context) Status

// checkTimeout bounds a single slow checker so the health endpoint
// stays responsive even when a dependency hangs.
const checkTimeout = 3 * time.Second

// Registry holds named checkers and runs them on demand.
type Registry struct {
	mu       sync.RWMutex
	names    []string
	checkers map[string]Checker
}

func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register adds a checker under name. Registering the same name twice
// replaces the checker but keeps its position in the output.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checkers[name]; !exists {
		r.names = append(r.names, name)
	}
	r.checkers[name] = check
}

// CheckAll runs every checker concurrently and reports aggregate health.
// Statuses come back in registration order. A checker that overruns its
// timeout is reported unhealthy rather than blocking the endpoint.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	r.mu.RLock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	checkers := make(map[string]Checker, len(r.checkers))
	for k, v := range r.checkers {
		checkers[k] = v
	}
	r.mu.RUnlock()

	statuses := make([]Status, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string, check Checker) {
			defer wg.Done()
			statuses[i] = runChecker(ctx, name, check)
		}(i, name, checkers[name])
	}
	wg.Wait()

	healthy := true
	for _, s := range statuses {
		if !s.Healthy {
			healthy = false
		}
	}
	return healthy, statuses
}

func runChecker(ctx context.Context, name string, check Checker) Status {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	done := make(chan Status, 1)
	go func() { done <- check(ctx) }()

	select {
	case s := <-done:
		if s.Name == "" {
			s.Name = name
		}
		return s
	case <-ctx.Done():
		return Status{Name: name, Healthy: false, Detail: "check timed out"}
	}
}
