package health

import (
	"context"
	"fmt"

	"github.com/cuemby/burrow/pkg/types"
)

// AgentChecker probes a managed daemon's local API in two stages: a TCP
// dial proves something is listening on the port, then the HTTP health
// endpoint proves the agent itself answers. The TCP stage fails with a
// connection-level message instead of an HTTP client error.
type AgentChecker struct {
	TCP  *TCPChecker
	HTTP *HTTPChecker
}

// ForAgent builds the two-stage checker for a managed daemon's local API.
func ForAgent(agent types.Agent) *AgentChecker {
	addr := fmt.Sprintf("127.0.0.1:%d", agent.HTTPPort)
	return &AgentChecker{
		TCP:  NewTCPChecker(addr),
		HTTP: NewHTTPChecker(fmt.Sprintf("http://%s%s", addr, agent.HealthPath)),
	}
}

// Check dials the port first, then probes the health endpoint.
func (a *AgentChecker) Check(ctx context.Context) Result {
	if result := a.TCP.Check(ctx); !result.Healthy {
		return result
	}
	return a.HTTP.Check(ctx)
}

// Type returns the type of the final stage.
func (a *AgentChecker) Type() CheckType {
	return CheckTypeHTTP
}
