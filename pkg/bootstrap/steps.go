package bootstrap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cuemby/burrow/pkg/fetch"
	"github.com/cuemby/burrow/pkg/health"
	"github.com/cuemby/burrow/pkg/registry"
	"github.com/cuemby/burrow/pkg/render"
	"github.com/cuemby/burrow/pkg/systemd"
	"github.com/cuemby/burrow/pkg/types"
)

// readyTimeout bounds how long activation waits for each daemon's HTTP API
// to come up.
const readyTimeout = 90 * time.Second

// Steps builds the ordered step list for a host. Ordering carries the
// run-level guarantees: downloads precede any file writes, the credential
// helper is verified before any service is activated, and the coordinator
// is activated before the orchestrator that depends on it.
func Steps(host *Host) []Step {
	cfg := host.Config
	orch := cfg.OrchestratorAgent()
	coord := cfg.CoordinatorAgent()

	steps := []Step{
		&prereqStep{},
		&binaryStep{agent: orch, release: fetch.HashicorpRelease(orch.Binary, orch.Version)},
		&binaryStep{agent: coord, release: fetch.HashicorpRelease(coord.Binary, coord.Version)},
		&dirStep{agent: orch},
		&dirStep{agent: coord},
		&agentConfigStep{agent: orch},
		&agentConfigStep{agent: coord},
		&unitStep{agent: orch},
		&unitStep{agent: coord},
	}

	if !cfg.Registry.Disabled {
		helper := types.Agent{Binary: registry.HelperBinary, Version: cfg.Registry.HelperVersion}
		steps = append(steps,
			&binaryStep{agent: helper, release: fetch.ECRHelperRelease(helper.Version)},
			&authConfigStep{},
			&verifyHelperStep{},
		)
	}

	steps = append(steps,
		&activateStep{unit: coord.UnitName},
		&activateStep{unit: orch.UnitName},
		&readyStep{agent: coord},
		&readyStep{agent: orch},
	)
	return steps
}

// prereqStep ensures the archive and transfer tools the daemons' own
// tooling expects are present, via the OS package manager.
type prereqStep struct {
	// run is swappable for tests.
	run func(ctx context.Context, name string, args ...string) error
}

func (s *prereqStep) Name() string { return "install-prereqs" }

var prereqTools = []string{"unzip", "curl"}

func (s *prereqStep) Check(ctx context.Context, host *Host) (Status, error) {
	for _, tool := range prereqTools {
		if _, err := exec.LookPath(tool); err != nil {
			return StatusPending, nil
		}
	}
	return StatusSatisfied, nil
}

func (s *prereqStep) Apply(ctx context.Context, host *Host) error {
	run := s.run
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) error {
			out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
			if err != nil {
				return fmt.Errorf("%s: %w (%s)", name, err, string(out))
			}
			return nil
		}
	}

	// Try apt-get first, then dnf.
	if _, err := exec.LookPath("apt-get"); err == nil {
		if err := run(ctx, "apt-get", "update", "-qq"); err != nil {
			return err
		}
		return run(ctx, "apt-get", append([]string{"install", "-y", "-qq"}, prereqTools...)...)
	}
	if _, err := exec.LookPath("dnf"); err == nil {
		return run(ctx, "dnf", append([]string{"install", "-y", "-q"}, prereqTools...)...)
	}
	return fmt.Errorf("no supported package manager found (need apt-get or dnf)")
}

// binaryStep installs one version-pinned binary.
type binaryStep struct {
	agent   types.Agent
	release fetch.Release
}

func (s *binaryStep) Name() string { return "install-" + s.agent.Binary }

func (s *binaryStep) Check(ctx context.Context, host *Host) (Status, error) {
	path := host.Fetcher.InstalledPath(s.agent.Binary)
	if fetch.VersionInstalled(ctx, path, s.agent.Version) {
		return StatusSatisfied, nil
	}
	return StatusPending, nil
}

func (s *binaryStep) Apply(ctx context.Context, host *Host) error {
	return host.Fetcher.Install(ctx, s.release)
}

// dirStep creates an agent's config and data directories with fixed
// permission bits.
type dirStep struct {
	agent types.Agent
}

func (s *dirStep) Name() string { return "dirs-" + s.agent.Binary }

func (s *dirStep) dirs() map[string]os.FileMode {
	return map[string]os.FileMode{
		s.agent.ConfigDir: 0755,
		s.agent.DataDir:   0700,
	}
}

func (s *dirStep) Check(ctx context.Context, host *Host) (Status, error) {
	for dir, mode := range s.dirs() {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() || info.Mode().Perm() != mode {
			return StatusPending, nil
		}
	}
	return StatusSatisfied, nil
}

func (s *dirStep) Apply(ctx context.Context, host *Host) error {
	for dir, mode := range s.dirs() {
		if err := os.MkdirAll(dir, mode); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		// MkdirAll applies umask; force the exact bits.
		if err := os.Chmod(dir, mode); err != nil {
			return fmt.Errorf("failed to chmod %s: %w", dir, err)
		}
	}
	return nil
}

// agentConfigStep renders one agent's configuration file. Overwrite
// semantics: manual edits are destroyed, matching content is left alone.
type agentConfigStep struct {
	agent types.Agent
}

func (s *agentConfigStep) Name() string { return "config-" + s.agent.Binary }

func (s *agentConfigStep) desired(host *Host) ([]byte, error) {
	p := render.Params{
		AdvertiseAddr:   host.AdvertiseAddr,
		Datacenter:      host.Config.Datacenter,
		DataDir:         s.agent.DataDir,
		LogLevel:        host.Config.LogLevel,
		HTTPPort:        s.agent.HTTPPort,
		CoordinatorPort: host.Config.Coordinator.HTTPPort,
	}
	if s.agent.Kind == types.AgentOrchestrator {
		return render.OrchestratorConfig(p)
	}
	return render.CoordinatorConfig(p)
}

func (s *agentConfigStep) path() string {
	return filepath.Join(s.agent.ConfigDir, s.agent.ConfigFile)
}

func (s *agentConfigStep) Check(ctx context.Context, host *Host) (Status, error) {
	desired, err := s.desired(host)
	if err != nil {
		return StatusUnknown, err
	}
	if render.FileMatches(s.path(), desired) {
		return StatusSatisfied, nil
	}
	return StatusPending, nil
}

func (s *agentConfigStep) Apply(ctx context.Context, host *Host) error {
	desired, err := s.desired(host)
	if err != nil {
		return err
	}
	if err := render.WriteFileAtomic(s.path(), desired, 0644, 0755); err != nil {
		return err
	}
	sum := sha256.Sum256(desired)
	host.ConfigHashes[s.path()] = hex.EncodeToString(sum[:])
	return nil
}

// unitStep registers one agent with the service manager: overwrite the
// descriptor, then reload manager state.
type unitStep struct {
	agent types.Agent
}

func (s *unitStep) Name() string { return "unit-" + s.agent.Binary }

func (s *unitStep) unit(host *Host) *systemd.Unit {
	binPath := host.Fetcher.InstalledPath(s.agent.Binary)

	var execStart, description string
	if s.agent.Kind == types.AgentOrchestrator {
		description = "Nomad Agent"
		execStart = fmt.Sprintf("%s agent -config %s", binPath, s.agent.ConfigDir)
	} else {
		description = "Consul Agent"
		execStart = fmt.Sprintf("%s agent -config-dir=%s", binPath, s.agent.ConfigDir)
	}
	unit := systemd.AgentUnit(s.agent.UnitName, description, execStart)
	unit.Dir = host.UnitDir
	return unit
}

func (s *unitStep) Check(ctx context.Context, host *Host) (Status, error) {
	unit := s.unit(host)
	if render.FileMatches(unit.Path(), unit.Render()) {
		return StatusSatisfied, nil
	}
	return StatusPending, nil
}

func (s *unitStep) Apply(ctx context.Context, host *Host) error {
	unit := s.unit(host)
	data := unit.Render()
	if err := render.WriteFileAtomic(unit.Path(), data, 0644, 0755); err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	host.ConfigHashes[unit.Path()] = hex.EncodeToString(sum[:])
	return host.Systemctl.DaemonReload(ctx)
}

// authConfigStep patches the docker auth config with the credential-helper
// mapping.
type authConfigStep struct{}

func (s *authConfigStep) Name() string { return "registry-auth" }

func (s *authConfigStep) patcher(host *Host) *registry.Patcher {
	reg := host.Config.Registry
	return registry.NewPatcher(reg.DockerConfigPath, reg.AccountID, reg.Region)
}

func (s *authConfigStep) Check(ctx context.Context, host *Host) (Status, error) {
	if s.patcher(host).HasEntry() {
		return StatusSatisfied, nil
	}
	return StatusPending, nil
}

func (s *authConfigStep) Apply(ctx context.Context, host *Host) error {
	_, err := s.patcher(host).Apply()
	return err
}

// verifyHelperStep is the one explicit domain check the bootstrap carries:
// the helper must be discoverable on the search path before any service is
// activated.
type verifyHelperStep struct{}

func (s *verifyHelperStep) Name() string { return "verify-helper" }

func (s *verifyHelperStep) Check(ctx context.Context, host *Host) (Status, error) {
	if _, err := registry.VerifyHelper(); err == nil {
		return StatusSatisfied, nil
	}
	return StatusPending, nil
}

func (s *verifyHelperStep) Apply(ctx context.Context, host *Host) error {
	_, err := registry.VerifyHelper()
	return err
}

// activateStep enables a unit at boot and starts it now.
type activateStep struct {
	unit string
}

func (s *activateStep) Name() string { return "activate-" + s.unit }

func (s *activateStep) Check(ctx context.Context, host *Host) (Status, error) {
	if host.Systemctl.IsEnabled(ctx, s.unit) && host.Systemctl.IsActive(ctx, s.unit) {
		return StatusSatisfied, nil
	}
	return StatusPending, nil
}

func (s *activateStep) Apply(ctx context.Context, host *Host) error {
	return host.Systemctl.EnableNow(ctx, s.unit)
}

// readyStep waits for a daemon's HTTP API to answer after activation.
type readyStep struct {
	agent types.Agent
}

func (s *readyStep) Name() string { return "ready-" + s.agent.Binary }

func (s *readyStep) Check(ctx context.Context, host *Host) (Status, error) {
	if health.ForAgent(s.agent).Check(ctx).Healthy {
		return StatusSatisfied, nil
	}
	return StatusPending, nil
}

func (s *readyStep) Apply(ctx context.Context, host *Host) error {
	return health.Wait(ctx, health.ForAgent(s.agent), time.Second, readyTimeout)
}
