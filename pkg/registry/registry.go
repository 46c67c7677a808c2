package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/log"
)

const (
	// HelperName is the credential helper suffix docker resolves to the
	// docker-credential-<name> executable.
	HelperName = "ecr-login"

	// HelperBinary is the executable docker invokes for tokens.
	HelperBinary = "docker-credential-ecr-login"
)

// Host returns the ECR registry hostname for an account/region pair.
func Host(accountID, region string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", accountID, region)
}

// Patcher mutates the docker auth config so pulls from one ECR registry go
// through the credential helper. Unlike the rendered agent configs this
// file is merged, never overwritten: all pre-existing keys survive.
type Patcher struct {
	path      string
	accountID string
	region    string
	logger    zerolog.Logger

	// now is swappable for deterministic backup names in tests.
	now func() time.Time
}

// NewPatcher creates a Patcher for the auth config at path.
func NewPatcher(path, accountID, region string) *Patcher {
	return &Patcher{
		path:      path,
		accountID: accountID,
		region:    region,
		logger:    log.WithComponent("registry"),
		now:       time.Now,
	}
}

// Result reports what Apply did to the auth config.
type Result struct {
	// Created is true when no config existed and a fresh one was written.
	Created bool

	// BackupPath is the pre-mutation copy, empty on the fresh-create path.
	BackupPath string

	// Changed is false when the entry already held the desired value.
	Changed bool
}

// HasEntry reports whether the auth config already maps the target
// registry to the helper. Used as the idempotence check before Apply.
func (p *Patcher) HasEntry() bool {
	doc, err := p.read()
	if err != nil {
		return false
	}
	helpers, err := credHelpers(doc)
	if err != nil {
		return false
	}
	return helpers[Host(p.accountID, p.region)] == HelperName
}

// Apply drives the three-state transition: create fresh, add the
// credHelpers section, or insert/overwrite the one entry. An existing file
// is always backed up before mutation.
func (p *Patcher) Apply() (*Result, error) {
	host := Host(p.accountID, p.region)

	original, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return p.create(host)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read auth config: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(original, &doc); err != nil {
		return nil, fmt.Errorf("auth config %s is not valid JSON: %w", p.path, err)
	}

	backupPath, err := p.backup(original)
	if err != nil {
		return nil, err
	}

	helpers, err := credHelpers(doc)
	if err != nil {
		return nil, err
	}

	changed := helpers[host] != HelperName
	helpers[host] = HelperName

	raw, err := json.Marshal(helpers)
	if err != nil {
		return nil, err
	}
	doc["credHelpers"] = raw

	if err := p.write(doc); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("registry", host).
		Str("backup", backupPath).
		Bool("changed", changed).
		Msg("Patched registry auth config")

	return &Result{BackupPath: backupPath, Changed: changed}, nil
}

// create writes a fresh auth config containing only the helper mapping.
// Nothing exists to back up on this path.
func (p *Patcher) create(host string) (*Result, error) {
	doc := map[string]json.RawMessage{}
	raw, err := json.Marshal(map[string]string{host: HelperName})
	if err != nil {
		return nil, err
	}
	doc["credHelpers"] = raw

	if err := p.write(doc); err != nil {
		return nil, err
	}

	p.logger.Info().Str("registry", host).Msg("Created registry auth config")
	return &Result{Created: true, Changed: true}, nil
}

func (p *Patcher) backup(original []byte) (string, error) {
	// Nanosecond resolution so rapid successive mutations never share a
	// backup name.
	backupPath := fmt.Sprintf("%s.bak.%s", p.path, p.now().UTC().Format("20060102T150405.000000000"))
	if err := os.WriteFile(backupPath, original, 0600); err != nil {
		return "", fmt.Errorf("failed to back up auth config: %w", err)
	}
	return backupPath, nil
}

func (p *Patcher) read() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Patcher) write(doc map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		return fmt.Errorf("failed to create auth config directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if err := os.WriteFile(p.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write auth config: %w", err)
	}
	return nil
}

// credHelpers decodes the credHelpers section, returning an empty map when
// the section is absent.
func credHelpers(doc map[string]json.RawMessage) (map[string]string, error) {
	raw, ok := doc["credHelpers"]
	if !ok {
		return map[string]string{}, nil
	}
	var helpers map[string]string
	if err := json.Unmarshal(raw, &helpers); err != nil {
		return nil, fmt.Errorf("credHelpers section is malformed: %w", err)
	}
	if helpers == nil {
		helpers = map[string]string{}
	}
	return helpers, nil
}

// VerifyHelper confirms the credential helper executable is discoverable
// on the search path and returns its location.
func VerifyHelper() (string, error) {
	path, err := exec.LookPath(HelperBinary)
	if err != nil {
		return "", fmt.Errorf("credential helper %s not found on PATH: %w", HelperBinary, err)
	}
	return path, nil
}
