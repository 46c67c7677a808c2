package health

import (
	"context"
	"fmt"
	"time"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
	CheckTypeTCP  CheckType = "tcp"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

// Wait polls a checker until it reports healthy or the deadline passes.
// This replaces a fixed post-start sleep: activation is only considered
// complete once the daemon actually answers.
func Wait(ctx context.Context, checker Checker, interval, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Result
	for {
		last = checker.Check(ctx)
		if last.Healthy {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for readiness: %s", last.Message)
		case <-ticker.C:
		}
	}
}
