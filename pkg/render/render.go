package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// Params carries everything the agent configuration templates interpolate.
// Rendering is deterministic: equal Params produce byte-identical output.
type Params struct {
	AdvertiseAddr string
	Datacenter    string
	DataDir       string
	LogLevel      string

	// HTTPPort is the port the rendered agent listens on.
	HTTPPort int

	// CoordinatorPort is where the orchestrator reaches the local
	// coordinator. Unused by the coordinator's own template.
	CoordinatorPort int
}

// orchestratorConfig is the workload orchestrator's agent configuration.
// The node runs both server and client roles, single-server quorum.
const orchestratorConfig = `data_dir  = "{{ .DataDir }}"
bind_addr = "0.0.0.0"
log_level = "{{ .LogLevel }}"

datacenter = "{{ .Datacenter }}"

ports {
  http = {{ .HTTPPort }}
}

advertise {
  http = "{{ .AdvertiseAddr }}"
  rpc  = "{{ .AdvertiseAddr }}"
  serf = "{{ .AdvertiseAddr }}"
}

server {
  enabled          = true
  bootstrap_expect = 1
}

client {
  enabled = true
}

consul {
  address = "127.0.0.1:{{ .CoordinatorPort }}"
}
`

// coordinatorConfig is the service-discovery agent's configuration.
const coordinatorConfig = `datacenter  = "{{ .Datacenter }}"
data_dir    = "{{ .DataDir }}"
log_level   = "{{ .LogLevel }}"

server           = true
bootstrap_expect = 1

bind_addr      = "{{ .AdvertiseAddr }}"
advertise_addr = "{{ .AdvertiseAddr }}"
client_addr    = "0.0.0.0"

ports {
  http = {{ .HTTPPort }}
}

ui_config {
  enabled = true
}
`

var (
	orchestratorTmpl = template.Must(template.New("orchestrator").Parse(orchestratorConfig))
	coordinatorTmpl  = template.Must(template.New("coordinator").Parse(coordinatorConfig))
)

// OrchestratorConfig renders the orchestrator agent configuration.
func OrchestratorConfig(p Params) ([]byte, error) {
	return execute(orchestratorTmpl, p)
}

// CoordinatorConfig renders the coordinator agent configuration.
func CoordinatorConfig(p Params) ([]byte, error) {
	return execute(coordinatorTmpl, p)
}

func execute(tmpl *template.Template, p Params) ([]byte, error) {
	if p.AdvertiseAddr == "" {
		return nil, fmt.Errorf("advertise address must not be empty")
	}
	if p.HTTPPort <= 0 {
		return nil, fmt.Errorf("http port must be positive")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("failed to render %s config: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic writes data to path via a temp file and rename, so a
// reader never observes a partially written artifact. Parent directories
// are created with dirMode.
func WriteFileAtomic(path string, data []byte, mode, dirMode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), mode)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// FileMatches reports whether the file at path already holds exactly data.
func FileMatches(path string, data []byte) bool {
	existing, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Equal(existing, data)
}
