/*
Package bootstrap reconciles a host toward its desired bootstrap state.

The bootstrap package replaces a linear fail-fast provisioning script with a
declarative model: an ordered list of steps, each able to observe the host
(Check) and converge it (Apply). Already-satisfied steps are skipped, pending
steps are applied with capped-backoff retries, and the run aborts on the
first step that exhausts its budget.

# Architecture

	┌───────────────────── BOOTSTRAP RUN ──────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐          │
	│  │                 Runner                      │          │
	│  │  - Ordered step list                        │          │
	│  │  - Check → skip | Apply (retry) → re-Check  │          │
	│  │  - Fail-fast at run level                   │          │
	│  │  - Produces a persisted RunRecord           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │                 Steps                       │          │
	│  │  install-prereqs     OS package manager     │          │
	│  │  install-<binary>    fetch + verify + place │          │
	│  │  dirs-<agent>        directories + modes    │          │
	│  │  config-<agent>      render HCL config      │          │
	│  │  unit-<agent>        unit file + reload     │          │
	│  │  registry-auth       docker config patch    │          │
	│  │  verify-helper       PATH discoverability   │          │
	│  │  activate-<unit>     enable --now           │          │
	│  │  ready-<agent>       HTTP readiness wait    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │                 Host                        │          │
	│  │  - Desired-state config                     │          │
	│  │  - Advertise address (discovered once)      │          │
	│  │  - Collaborators: fetcher, service manager  │          │
	│  └────────────────────────────────────────────┘          │
	└───────────────────────────────────────────────────────────┘

# Ordering Guarantees

Step order carries the run-level invariants:
  - Downloads precede every file write: a failed download leaves no
    service files behind and no services enabled.
  - The credential helper is verified before any service is activated.
  - The coordinator is activated before the orchestrator that registers
    against it.

# Idempotence

Every Check compares observed state against the exact desired artifact
(byte-identical file content, pinned binary version, unit enablement).
Re-running a completed bootstrap evaluates every step as satisfied and
applies nothing. Manual edits to rendered artifacts flip their step back
to pending and are destroyed on the next run.
*/
package bootstrap
