// Package infra holds the adapters behind the core interfaces: road data
// loading, metrics sinks, MQTT publishing, the SQLite run store, Sentry and
// the zerolog logger. Core packages never import infra.
package infra
