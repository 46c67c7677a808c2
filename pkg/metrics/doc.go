/*
Package metrics provides Prometheus metrics for bootstrap runs.

Counters and histograms cover run outcomes, per-step applies and failures,
step durations and download volume. Metrics are registered at init and can
be served on a configurable address for the duration of a run via Serve;
short-lived runs that nothing scrapes simply pay the negligible counter
cost.
*/
package metrics
