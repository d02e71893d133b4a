// Package instrumentation provides OpenTelemetry metrics, tracing and
// audit logging for the server.
//
// The Provider owns meter and tracer providers configured from
// environment variables. Metrics cover MCP tool invocations, Google
// API operations, OAuth token refreshes, contact resolutions and the
// pending-operation lifecycle. Prometheus is the default metrics
// exporter; OTLP and stdout are available for push-based setups and
// local debugging.
//
// Audit logging records every tool invocation. Recipient emails are
// anonymized by default; full addresses are logged only when PII
// inclusion is explicitly enabled for compliance setups.
package instrumentation
