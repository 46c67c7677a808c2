package systemd

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/log"
)

// Systemctl wraps the service manager's control commands. All calls exec
// the systemctl binary; the service manager itself is a black-box external
// collaborator.
type Systemctl struct {
	logger zerolog.Logger

	// runner is swappable for tests.
	runner func(ctx context.Context, args ...string) (string, error)
}

// NewSystemctl creates a Systemctl wrapper.
func NewSystemctl() *Systemctl {
	s := &Systemctl{logger: log.WithComponent("systemd")}
	s.runner = s.exec
	return s
}

func (s *Systemctl) exec(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "systemctl", args...)
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, fmt.Errorf("systemctl %s: %w (%s)", strings.Join(args, " "), err, output)
	}
	return output, nil
}

// DaemonReload reloads unit definitions after a descriptor overwrite.
func (s *Systemctl) DaemonReload(ctx context.Context) error {
	s.logger.Debug().Msg("Reloading service manager state")
	_, err := s.runner(ctx, "daemon-reload")
	return err
}

// EnableNow enables the unit at boot and starts it immediately.
func (s *Systemctl) EnableNow(ctx context.Context, unit string) error {
	s.logger.Info().Str("unit", unit).Msg("Enabling and starting unit")
	_, err := s.runner(ctx, "enable", "--now", unit)
	return err
}

// IsActive reports whether the unit is currently running.
func (s *Systemctl) IsActive(ctx context.Context, unit string) bool {
	out, err := s.runner(ctx, "is-active", unit)
	return err == nil && out == "active"
}

// IsEnabled reports whether the unit starts at boot.
func (s *Systemctl) IsEnabled(ctx context.Context, unit string) bool {
	out, err := s.runner(ctx, "is-enabled", unit)
	return err == nil && out == "enabled"
}

// Status returns the human-readable status text for a unit. The unit being
// inactive is not an error here; the text is for operator display.
func (s *Systemctl) Status(ctx context.Context, unit string) string {
	out, _ := s.runner(ctx, "status", "--no-pager", unit)
	return out
}
