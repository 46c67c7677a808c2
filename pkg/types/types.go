package types

import (
	"time"
)

// StepStatus is the outcome classification for a single bootstrap step.
type StepStatus string

const (
	// StepStatusSatisfied means the observed state already matched and no
	// apply was needed.
	StepStatusSatisfied StepStatus = "satisfied"

	// StepStatusApplied means the step changed the host to reach desired
	// state.
	StepStatusApplied StepStatus = "applied"

	// StepStatusFailed means the step exhausted its retries.
	StepStatusFailed StepStatus = "failed"

	// StepStatusSkipped means the step was never evaluated because an
	// earlier step failed.
	StepStatusSkipped StepStatus = "skipped"
)

// StepOutcome records what happened to one step during a run.
type StepOutcome struct {
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunRecord is the persisted result of one bootstrap run.
type RunRecord struct {
	ID            string        `json:"id"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	AdvertiseAddr string        `json:"advertise_addr"`
	Success       bool          `json:"success"`
	Steps         []StepOutcome `json:"steps"`

	// ConfigHashes maps rendered file path to its sha256, so a later run
	// can report drift without re-reading templates.
	ConfigHashes map[string]string `json:"config_hashes,omitempty"`
}

// Changed reports whether any step applied a change during the run.
func (r *RunRecord) Changed() bool {
	for _, s := range r.Steps {
		if s.Status == StepStatusApplied {
			return true
		}
	}
	return false
}

// AgentKind distinguishes the two daemons burrow manages.
type AgentKind string

const (
	AgentOrchestrator AgentKind = "orchestrator"
	AgentCoordinator  AgentKind = "coordinator"
)

// Agent describes one managed daemon: where its binary, configuration and
// unit live, and how to reach its HTTP API once it is up.
type Agent struct {
	Kind       AgentKind
	Binary     string // executable name, e.g. "nomad"
	Version    string
	ConfigDir  string
	ConfigFile string
	DataDir    string
	UnitName   string // systemd unit, e.g. "nomad.service"
	HTTPPort   int
	HealthPath string // HTTP path probed after activation
}
