package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/types"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second
	maxBackoff         = 30 * time.Second
)

// Runner drives an ordered step list toward desired state. Satisfied steps
// are skipped, pending steps are applied with capped-backoff retries, and
// the first step to exhaust its retries aborts the run: fail-fast at the
// run level, retry at the step level.
type Runner struct {
	host  *Host
	steps []Step

	maxAttempts int
	backoff     time.Duration
	logger      zerolog.Logger

	// sleep is swappable so retry tests don't wait for real backoff.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner creates a runner over an ordered step list.
func NewRunner(host *Host, steps []Step) *Runner {
	return &Runner{
		host:        host,
		steps:       steps,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		logger:      log.WithComponent("bootstrap"),
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Run executes every step in order and returns the run record. The record
// is complete even when the run fails: later steps are marked skipped.
func (r *Runner) Run(ctx context.Context) (*types.RunRecord, error) {
	runID := uuid.NewString()
	logger := r.logger.With().Str("run_id", runID).Logger()

	record := &types.RunRecord{
		ID:            runID,
		StartedAt:     time.Now().UTC(),
		AdvertiseAddr: r.host.AdvertiseAddr,
	}

	timer := metrics.NewTimer()
	var runErr error

	for _, step := range r.steps {
		if runErr != nil {
			record.Steps = append(record.Steps, types.StepOutcome{
				Name:   step.Name(),
				Status: types.StepStatusSkipped,
			})
			continue
		}

		outcome := r.runStep(ctx, logger, step)
		record.Steps = append(record.Steps, outcome)

		if outcome.Status == types.StepStatusFailed {
			runErr = fmt.Errorf("step %s failed: %s", outcome.Name, outcome.Error)
		}
	}

	record.FinishedAt = time.Now().UTC()
	record.Success = runErr == nil
	record.ConfigHashes = r.host.ConfigHashes

	result := "success"
	if runErr != nil {
		result = "failure"
	}
	metrics.RunsTotal.WithLabelValues(result).Inc()
	timer.ObserveDuration(metrics.RunDuration)

	return record, runErr
}

// runStep checks one step and applies it if pending, with retries.
func (r *Runner) runStep(ctx context.Context, logger zerolog.Logger, step Step) types.StepOutcome {
	name := step.Name()
	stepLogger := logger.With().Str("step", name).Logger()
	timer := metrics.NewTimer()

	outcome := types.StepOutcome{Name: name}
	defer func() {
		outcome.Duration = timer.Elapsed()
	}()

	status, err := step.Check(ctx, r.host)
	if err != nil {
		stepLogger.Error().Err(err).Msg("Check failed")
		metrics.StepFailures.WithLabelValues(name).Inc()
		outcome.Status = types.StepStatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	if status == StatusSatisfied {
		stepLogger.Debug().Msg("Already satisfied")
		metrics.StepsSatisfied.WithLabelValues(name).Inc()
		outcome.Status = types.StepStatusSatisfied
		return outcome
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		outcome.Attempts = attempt

		if attempt > 1 {
			delay := r.backoff * time.Duration(1<<(attempt-2))
			if delay > maxBackoff {
				delay = maxBackoff
			}
			stepLogger.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("Retrying step")
			if err := r.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		if lastErr = step.Apply(ctx, r.host); lastErr == nil {
			break
		}
		metrics.StepFailures.WithLabelValues(name).Inc()
	}

	if lastErr != nil {
		stepLogger.Error().Err(lastErr).Msg("Step exhausted retries")
		outcome.Status = types.StepStatusFailed
		outcome.Error = lastErr.Error()
		return outcome
	}

	// Re-check so a silently non-converging Apply surfaces as a failure
	// instead of a clean run.
	status, err = step.Check(ctx, r.host)
	if err == nil && status == StatusPending {
		err = fmt.Errorf("apply completed but state is still pending")
	}
	if err != nil {
		stepLogger.Error().Err(err).Msg("Post-apply check failed")
		metrics.StepFailures.WithLabelValues(name).Inc()
		outcome.Status = types.StepStatusFailed
		outcome.Error = err.Error()
		return outcome
	}

	stepLogger.Info().Msg("Applied")
	metrics.StepsApplied.WithLabelValues(name).Inc()
	timer.ObserveDurationVec(metrics.StepDuration, name)
	outcome.Status = types.StepStatusApplied
	return outcome
}

// PlanEntry is one step's evaluation in a dry run.
type PlanEntry struct {
	Name   string
	Status Status
	Err    error
}

// Plan evaluates every step's Check without applying anything.
func (r *Runner) Plan(ctx context.Context) []PlanEntry {
	entries := make([]PlanEntry, 0, len(r.steps))
	for _, step := range r.steps {
		status, err := step.Check(ctx, r.host)
		entries = append(entries, PlanEntry{Name: step.Name(), Status: status, Err: err})
	}
	return entries
}
