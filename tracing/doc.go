// Package tracing is a thin wrapper around OpenTelemetry so the rest of the
// code-base can start and end spans without importing the upstream packages
// directly. All instrumentation is kept here so that applications which do
// not require tracing can leave it uninitialised; spans are then no-ops.
package tracing
