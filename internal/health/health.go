// Package health runs one-shot checks against the bot's dependencies.
package health

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the health of one component or of the whole bot.
type Status string

const (
	StatusHealthy   Status = "HEALTHY"
	StatusDegraded  Status = "DEGRADED"
	StatusUnhealthy Status = "UNHEALTHY"
)

// Component is the outcome of one check.
type Component struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Message string        `json:"message"`
	Latency time.Duration `json:"latency"`
}

// Check inspects one dependency.
type Check func(ctx context.Context) Component

// Report is the outcome of a Run.
type Report struct {
	Status     Status      `json:"status"`
	Components []Component `json:"components"`
}

// Healthy reports whether no component is unhealthy.
func (r Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// Checker runs registered checks concurrently.
type Checker struct {
	names   []string
	checks  map[string]Check
	timeout time.Duration
}

// NewChecker creates a Checker. Each Run is bounded by timeout.
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Checker{checks: make(map[string]Check), timeout: timeout}
}

// Register adds a check. Registering a name twice replaces the check.
func (c *Checker) Register(name string, check Check) {
	if _, ok := c.checks[name]; !ok {
		c.names = append(c.names, name)
	}
	c.checks[name] = check
}

// Run executes every check and returns the components in registration order.
func (c *Checker) Run(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	components := make([]Component, len(c.names))
	var g errgroup.Group
	for i, name := range c.names {
		i, name := i, name
		check := c.checks[name]
		g.Go(func() error {
			components[i] = runCheck(ctx, name, check)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: StatusHealthy, Components: components}
	for _, comp := range components {
		switch comp.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func runCheck(ctx context.Context, name string, check Check) (comp Component) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			comp = Component{Status: StatusUnhealthy, Message: fmt.Sprintf("panic recovered: %v", r)}
		}
		comp.Name = name
		if comp.Latency == 0 {
			comp.Latency = time.Since(start)
		}
	}()
	return check(ctx)
}

// Database checks a connection with ping. Answers slower than slow are
// degraded.
func Database(ping func(ctx context.Context) error, slow time.Duration) Check {
	return func(ctx context.Context) Component {
		start := time.Now()
		err := ping(ctx)
		latency := time.Since(start)

		switch {
		case err != nil:
			return Component{Status: StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err), Latency: latency}
		case slow > 0 && latency > slow:
			return Component{Status: StatusDegraded, Message: fmt.Sprintf("slow: %v", latency), Latency: latency}
		default:
			return Component{Status: StatusHealthy, Message: "ok", Latency: latency}
		}
	}
}

// API checks an external service. check returns a short description of
// what it saw on success.
func API(check func(ctx context.Context) (string, error), slow time.Duration) Check {
	return func(ctx context.Context) Component {
		start := time.Now()
		msg, err := check(ctx)
		latency := time.Since(start)

		switch {
		case err != nil:
			return Component{Status: StatusUnhealthy, Message: err.Error(), Latency: latency}
		case slow > 0 && latency > slow:
			return Component{Status: StatusDegraded, Message: fmt.Sprintf("%s (slow: %v)", msg, latency.Round(time.Millisecond)), Latency: latency}
		default:
			return Component{Status: StatusHealthy, Message: msg, Latency: latency}
		}
	}
}

// Skipped reports a component that is not configured.
func Skipped(reason string) Check {
	return func(context.Context) Component {
		return Component{Status: StatusDegraded, Message: reason}
	}
}
