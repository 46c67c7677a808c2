package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Orchestrator.Version != DefaultOrchestratorVersion {
		t.Errorf("Orchestrator.Version = %v, want %v", cfg.Orchestrator.Version, DefaultOrchestratorVersion)
	}
	if cfg.Coordinator.HTTPPort != 8500 {
		t.Errorf("Coordinator.HTTPPort = %v, want 8500", cfg.Coordinator.HTTPPort)
	}
	if cfg.InstallDir != DefaultInstallDir {
		t.Errorf("InstallDir = %v, want %v", cfg.InstallDir, DefaultInstallDir)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	// Loading bare defaults succeeds; the missing account ID only blocks
	// runs that patch the auth config.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if err := cfg.ValidateRegistry(); err == nil {
		t.Fatal("ValidateRegistry() with no account ID should fail")
	}
}

func TestLoad_Overrides(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "burrow.yaml")

	doc := `
datacenter: edge-1
advertiseAddr: 10.1.2.3
orchestrator:
  version: 1.6.2
  httpPort: 4646
registry:
  accountId: "123456789012"
  region: us-west-2
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Datacenter != "edge-1" {
		t.Errorf("Datacenter = %v, want edge-1", cfg.Datacenter)
	}
	if cfg.AdvertiseAddr != "10.1.2.3" {
		t.Errorf("AdvertiseAddr = %v, want 10.1.2.3", cfg.AdvertiseAddr)
	}
	if cfg.Registry.Region != "us-west-2" {
		t.Errorf("Registry.Region = %v, want us-west-2", cfg.Registry.Region)
	}

	// Untouched fields keep their defaults
	if cfg.Coordinator.Version != DefaultCoordinatorVersion {
		t.Errorf("Coordinator.Version = %v, want default %v", cfg.Coordinator.Version, DefaultCoordinatorVersion)
	}
}

func TestValidate_AccountID(t *testing.T) {
	cases := []struct {
		name      string
		accountID string
		disabled  bool
		wantErr   bool
	}{
		{"valid", "123456789012", false, false},
		{"empty", "", false, true},
		{"placeholder", "<ACCOUNT_ID>", false, true},
		{"too short", "12345", false, true},
		{"disabled skips check", "", true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Registry.AccountID = tc.accountID
			cfg.Registry.Disabled = tc.disabled

			err := cfg.ValidateRegistry()
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateRegistry() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_Ports(t *testing.T) {
	cfg := Default()
	cfg.Coordinator.HTTPPort = 0

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with zero httpPort should fail")
	}
}

func TestAgentDescriptors(t *testing.T) {
	cfg := Default()

	orch := cfg.OrchestratorAgent()
	if orch.Binary != "nomad" || orch.UnitName != "nomad.service" {
		t.Errorf("unexpected orchestrator descriptor: %+v", orch)
	}

	coord := cfg.CoordinatorAgent()
	if coord.Binary != "consul" || coord.HTTPPort != 8500 {
		t.Errorf("unexpected coordinator descriptor: %+v", coord)
	}
	if coord.HealthPath != "/v1/status/leader" {
		t.Errorf("coordinator HealthPath = %v, want /v1/status/leader", coord.HealthPath)
	}
}
