package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/cuemby/burrow/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultOrchestratorVersion is the pinned Nomad release.
	DefaultOrchestratorVersion = "1.6.2"

	// DefaultCoordinatorVersion is the pinned Consul release.
	DefaultCoordinatorVersion = "1.16.2"

	// DefaultHelperVersion is the pinned ECR credential helper release.
	DefaultHelperVersion = "0.7.1"

	// DefaultInstallDir is where fetched binaries are installed.
	DefaultInstallDir = "/usr/local/bin"

	// DefaultDataDir is where burrow keeps its own state database.
	DefaultDataDir = "/var/lib/burrow"
)

// Config is the desired-state document for one host. Every field except
// the registry account ID has a default, so a minimal file provisions a
// standalone single-server node.
type Config struct {
	// DataDir holds burrow's run-record database.
	DataDir string `yaml:"dataDir"`

	// InstallDir is where daemon binaries are installed.
	InstallDir string `yaml:"installDir"`

	// AdvertiseAddr overrides interface discovery on multi-homed hosts.
	AdvertiseAddr string `yaml:"advertiseAddr"`

	Datacenter string `yaml:"datacenter"`
	LogLevel   string `yaml:"logLevel"`

	Orchestrator AgentConfig    `yaml:"orchestrator"`
	Coordinator  AgentConfig    `yaml:"coordinator"`
	Registry     RegistryConfig `yaml:"registry"`
}

// AgentConfig pins one daemon's version and layout.
type AgentConfig struct {
	Version   string `yaml:"version"`
	ConfigDir string `yaml:"configDir"`
	DataDir   string `yaml:"dataDir"`
	HTTPPort  int    `yaml:"httpPort"`
}

// RegistryConfig configures the container-registry credential helper.
type RegistryConfig struct {
	// AccountID is the 12-digit AWS account whose ECR registry the helper
	// authenticates against. Required when the registry step is enabled.
	AccountID string `yaml:"accountId"`

	Region string `yaml:"region"`

	HelperVersion string `yaml:"helperVersion"`

	// DockerConfigPath is the auth config to patch. Defaults to
	// /root/.docker/config.json since bootstrap runs as root.
	DockerConfigPath string `yaml:"dockerConfigPath"`

	// Disabled skips helper installation and auth-config patching.
	Disabled bool `yaml:"disabled"`
}

// Default returns the configuration matching a fresh single-node setup.
func Default() *Config {
	return &Config{
		DataDir:    DefaultDataDir,
		InstallDir: DefaultInstallDir,
		Datacenter: "dc1",
		LogLevel:   "INFO",
		Orchestrator: AgentConfig{
			Version:   DefaultOrchestratorVersion,
			ConfigDir: "/etc/nomad.d",
			DataDir:   "/opt/nomad/data",
			HTTPPort:  4646,
		},
		Coordinator: AgentConfig{
			Version:   DefaultCoordinatorVersion,
			ConfigDir: "/etc/consul.d",
			DataDir:   "/opt/consul/data",
			HTTPPort:  8500,
		},
		Registry: RegistryConfig{
			Region:           "us-east-1",
			HelperVersion:    DefaultHelperVersion,
			DockerConfigPath: "/root/.docker/config.json",
		},
	}
}

// Load reads a YAML config file on top of the defaults and validates the
// result. An empty path validates the bare defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var accountIDPattern = regexp.MustCompile(`^[0-9]{12}$`)

// Validate rejects documents that would render broken artifacts. The
// registry section is checked separately by ValidateRegistry, so read-only
// commands work without an account ID.
func (c *Config) Validate() error {
	if c.Datacenter == "" {
		return fmt.Errorf("datacenter must not be empty")
	}
	if c.Orchestrator.Version == "" || c.Coordinator.Version == "" {
		return fmt.Errorf("agent versions must not be empty")
	}
	if c.Orchestrator.HTTPPort <= 0 || c.Coordinator.HTTPPort <= 0 {
		return fmt.Errorf("agent httpPort must be positive")
	}
	return nil
}

// ValidateRegistry rejects a missing or placeholder account ID before any
// run patches the auth config, instead of letting it end up embedded in
// the registry hostname.
func (c *Config) ValidateRegistry() error {
	if c.Registry.Disabled {
		return nil
	}
	if !accountIDPattern.MatchString(c.Registry.AccountID) {
		return fmt.Errorf("registry.accountId must be a 12-digit AWS account ID (got %q); set registry.disabled to skip", c.Registry.AccountID)
	}
	if c.Registry.Region == "" {
		return fmt.Errorf("registry.region must not be empty")
	}
	return nil
}

// OrchestratorAgent builds the Agent descriptor for the workload
// orchestrator (Nomad).
func (c *Config) OrchestratorAgent() types.Agent {
	return types.Agent{
		Kind:       types.AgentOrchestrator,
		Binary:     "nomad",
		Version:    c.Orchestrator.Version,
		ConfigDir:  c.Orchestrator.ConfigDir,
		ConfigFile: "nomad.hcl",
		DataDir:    c.Orchestrator.DataDir,
		UnitName:   "nomad.service",
		HTTPPort:   c.Orchestrator.HTTPPort,
		HealthPath: "/v1/agent/health",
	}
}

// CoordinatorAgent builds the Agent descriptor for the service-discovery
// agent (Consul).
func (c *Config) CoordinatorAgent() types.Agent {
	return types.Agent{
		Kind:       types.AgentCoordinator,
		Binary:     "consul",
		Version:    c.Coordinator.Version,
		ConfigDir:  c.Coordinator.ConfigDir,
		ConfigFile: "consul.hcl",
		DataDir:    c.Coordinator.DataDir,
		UnitName:   "consul.service",
		HTTPPort:   c.Coordinator.HTTPPort,
		HealthPath: "/v1/status/leader",
	}
}
