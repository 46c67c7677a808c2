package systemd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// UnitDir is where unit descriptors are written.
const UnitDir = "/etc/systemd/system"

// Unit describes a supervised long-running service. Rendering is
// deterministic so repeated bootstraps rewrite nothing.
type Unit struct {
	Name        string // file name, e.g. "nomad.service"
	Description string
	Docs        string

	// Dir overrides UnitDir, mainly for tests.
	Dir string

	// After/Wants order the unit behind network readiness.
	After []string
	Wants []string

	ExecStart  string
	ExecReload string
	KillMode   string
	KillSignal string

	Restart     string
	RestartSec  int
	LimitNOFILE int

	User  string
	Group string
}

// Path returns the unit file's absolute path.
func (u *Unit) Path() string {
	dir := u.Dir
	if dir == "" {
		dir = UnitDir
	}
	return filepath.Join(dir, u.Name)
}

// Render produces the unit file content.
func (u *Unit) Render() []byte {
	var buf bytes.Buffer

	buf.WriteString("[Unit]\n")
	fmt.Fprintf(&buf, "Description=%s\n", u.Description)
	if u.Docs != "" {
		fmt.Fprintf(&buf, "Documentation=%s\n", u.Docs)
	}
	if len(u.After) > 0 {
		fmt.Fprintf(&buf, "After=%s\n", strings.Join(u.After, " "))
	}
	if len(u.Wants) > 0 {
		fmt.Fprintf(&buf, "Wants=%s\n", strings.Join(u.Wants, " "))
	}

	buf.WriteString("\n[Service]\n")
	if u.User != "" {
		fmt.Fprintf(&buf, "User=%s\n", u.User)
	}
	if u.Group != "" {
		fmt.Fprintf(&buf, "Group=%s\n", u.Group)
	}
	fmt.Fprintf(&buf, "ExecStart=%s\n", u.ExecStart)
	if u.ExecReload != "" {
		fmt.Fprintf(&buf, "ExecReload=%s\n", u.ExecReload)
	}
	if u.KillMode != "" {
		fmt.Fprintf(&buf, "KillMode=%s\n", u.KillMode)
	}
	if u.KillSignal != "" {
		fmt.Fprintf(&buf, "KillSignal=%s\n", u.KillSignal)
	}
	if u.Restart != "" {
		fmt.Fprintf(&buf, "Restart=%s\n", u.Restart)
	}
	if u.RestartSec > 0 {
		fmt.Fprintf(&buf, "RestartSec=%d\n", u.RestartSec)
	}
	if u.LimitNOFILE > 0 {
		fmt.Fprintf(&buf, "LimitNOFILE=%d\n", u.LimitNOFILE)
	}

	buf.WriteString("\n[Install]\nWantedBy=multi-user.target\n")

	return buf.Bytes()
}

// AgentUnit builds the standard unit for one of the managed daemons: start
// via `agent -config <dir>` style command, SIGHUP reload, restart on
// failure, ordered behind network-online.
func AgentUnit(name, description, execStart string) *Unit {
	return &Unit{
		Name:        name,
		Description: description,
		After:       []string{"network-online.target"},
		Wants:       []string{"network-online.target"},
		ExecStart:   execStart,
		ExecReload:  "/bin/kill -HUP $MAINPID",
		KillMode:    "process",
		KillSignal:  "SIGINT",
		Restart:     "on-failure",
		RestartSec:  2,
		LimitNOFILE: 65536,
	}
}
