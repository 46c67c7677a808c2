package bootstrap

import (
	"context"

	"github.com/cuemby/burrow/pkg/config"
	"github.com/cuemby/burrow/pkg/fetch"
)

// Status classifies a step's observed state relative to desired state.
type Status string

const (
	// StatusSatisfied means the host already matches and Apply is skipped.
	StatusSatisfied Status = "satisfied"

	// StatusPending means Apply is needed.
	StatusPending Status = "pending"

	// StatusUnknown means the step cannot observe without applying.
	StatusUnknown Status = "unknown"
)

// Step is one discrete, individually retryable unit of the bootstrap.
// Check observes, Apply converges. Apply must be safe to re-run.
type Step interface {
	Name() string
	Check(ctx context.Context, host *Host) (Status, error)
	Apply(ctx context.Context, host *Host) error
}

// installer is the slice of fetch.Fetcher steps depend on.
type installer interface {
	Install(ctx context.Context, rel fetch.Release) error
	InstalledPath(binary string) string
}

// serviceManager is the slice of systemd.Systemctl steps depend on.
type serviceManager interface {
	DaemonReload(ctx context.Context) error
	EnableNow(ctx context.Context, unit string) error
	IsActive(ctx context.Context, unit string) bool
	IsEnabled(ctx context.Context, unit string) bool
}

// Host carries the desired-state document, the address discovered once at
// run start, and the collaborators steps act through.
type Host struct {
	Config        *config.Config
	AdvertiseAddr string

	Fetcher   installer
	Systemctl serviceManager

	// UnitDir overrides the service manager's unit directory, mainly for
	// tests.
	UnitDir string

	// ConfigHashes collects sha256 digests of rendered artifacts for the
	// run record.
	ConfigHashes map[string]string
}

// NewHost wires the default collaborators for a real bootstrap.
func NewHost(cfg *config.Config, advertiseAddr string, fetcher installer, svc serviceManager) *Host {
	return &Host{
		Config:        cfg,
		AdvertiseAddr: advertiseAddr,
		Fetcher:       fetcher,
		Systemctl:     svc,
		ConfigHashes:  make(map[string]string),
	}
}
