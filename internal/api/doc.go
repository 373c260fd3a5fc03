// Package api hosts the admin HTTP server for serve mode. Notable
// routes:
//   - GET /healthz and /readyz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /status for the last run summary.
package api
