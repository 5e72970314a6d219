// Package server provides the MCP server context plus the dedicated
// metrics and health endpoints.
//
// ServerContext manages per-account Gmail clients with lazy initialization
// and caching, and carries the optional observability collaborators
// (metrics recorder, audit logger) plus the classification oracle used by
// the triage tool.
//
// MetricsServer serves Prometheus metrics on a dedicated port, isolated
// from MCP traffic. HealthChecker serves liveness and readiness probes.
package server
