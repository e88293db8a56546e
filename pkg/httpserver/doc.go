// Package httpserver runs the portal's HTTP listener with graceful shutdown on
// context cancellation or SIGINT/SIGTERM, and provides liveness and readiness
// handlers for the probes under /health.
package httpserver
